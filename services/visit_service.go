package services

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Kasai-Ohara-Tsu/apo2/config"
	"github.com/Kasai-Ohara-Tsu/apo2/models"
)

// 担当者响应决定
const (
	DecisionAvailable   = "available"
	DecisionUnavailable = "unavailable"
)

// EscalationResult 升级操作的结果
type EscalationResult struct {
	Visit          *models.Visit `json:"visit"`
	EscalatedTo    *models.Staff `json:"escalated_to,omitempty"`
	GeneralAffairs bool          `json:"general_affairs"`
	// 升级到总务时告知受付端的联系邮箱，未配置时为空
	GeneralAffairsContact string `json:"general_affairs_contact,omitempty"`
	EscalationLevel       int    `json:"escalation_level"`
}

// VisitStatistics 来访统计信息
type VisitStatistics struct {
	Days        int   `json:"days"`
	Total       int64 `json:"total"`
	Waiting     int64 `json:"waiting"`
	Notified    int64 `json:"notified"`
	Accepted    int64 `json:"accepted"`
	Unavailable int64 `json:"unavailable"`
	Completed   int64 `json:"completed"`
}

// CreateVisitInput 受付向导创建来访记录的入参
type CreateVisitInput struct {
	VisitorName    string
	VisitorCompany string
	VisitType      models.VisitType
	StaffID        *uint
	PurposePreset  string
	PurposeCustom  string
	PurposeType    string
}

// InterfaceVisitService 定义来访服务接口
// 来访记录的 status/escalation_level/response 字段只能经由这里修改
type InterfaceVisitService interface {
	CreateVisit(input *CreateVisitInput) (*models.Visit, error)
	GetVisitByID(id uint) (*models.Visit, error)
	GetAllVisits(page, pageSize int) ([]models.Visit, int64, error)
	GetVisitStatistics(days int) (*VisitStatistics, error)
	Notify(visitID, staffID uint) (*models.Visit, error)
	Respond(visitID uint, decision, message string) (*models.Visit, error)
	Escalate(visitID uint) (*EscalationResult, error)
	Complete(visitID uint) (*models.Visit, error)
	Cancel(visitID uint) error
}

// VisitService 提供来访记录相关的服务
type VisitService struct {
	DB       *gorm.DB
	Config   *config.Config
	Notifier InterfaceNotificationService
}

// NewVisitService 创建一个新的来访服务
func NewVisitService(db *gorm.DB, cfg *config.Config, notifier InterfaceNotificationService) InterfaceVisitService {
	return &VisitService{
		DB:       db,
		Config:   cfg,
		Notifier: notifier,
	}
}

// 1 CreateVisit 创建一条新的来访记录，初始状态固定为 waiting
func (s *VisitService) CreateVisit(input *CreateVisitInput) (*models.Visit, error) {
	// 空白的姓名和公司按受付画面的惯例落为「なし」
	visitorName := input.VisitorName
	if visitorName == "" {
		visitorName = "なし"
	}
	visitorCompany := input.VisitorCompany
	if visitorCompany == "" {
		visitorCompany = "なし"
	}

	visit := &models.Visit{
		Status:         models.VisitStatusWaiting,
		VisitType:      input.VisitType,
		VisitorName:    visitorName,
		VisitorCompany: visitorCompany,
		StaffID:        input.StaffID,
		PurposePreset:  input.PurposePreset,
		PurposeCustom:  input.PurposeCustom,
		PurposeType:    input.PurposeType,
		VisitedAt:      time.Now(),
	}

	if err := s.DB.Create(visit).Error; err != nil {
		return nil, err
	}

	// 预先指名的担当者计入通知历史
	if input.StaffID != nil {
		var staff models.Staff
		if err := s.DB.First(&staff, *input.StaffID).Error; err == nil {
			s.appendNotifiedStaff(visit, &staff)
		}
	}

	log.Printf("[VISIT] 创建来访记录: id=%d, 来访者=%s(%s)",
		visit.ID, visit.VisitorName, visit.VisitorCompany)

	return s.GetVisitByID(visit.ID)
}

// 2 GetVisitByID 根据ID获取来访记录
func (s *VisitService) GetVisitByID(id uint) (*models.Visit, error) {
	var visit models.Visit
	err := s.DB.
		Preload("Staff").
		Preload("Staff.Department").
		Preload("PrimaryStaff").
		Preload("PrimaryStaff.Substitute1").
		Preload("PrimaryStaff.Substitute2").
		Preload("NotifiedStaff").
		First(&visit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	return &visit, nil
}

// 3 GetAllVisits 获取所有来访记录，支持分页
func (s *VisitService) GetAllVisits(page, pageSize int) ([]models.Visit, int64, error) {
	var visits []models.Visit
	var total int64

	if err := s.DB.Model(&models.Visit{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := s.DB.Preload("Staff").
		Order("visited_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&visits).Error; err != nil {
		return nil, 0, err
	}

	return visits, total, nil
}

// 4 GetVisitStatistics 统计最近N天的来访记录
func (s *VisitService) GetVisitStatistics(days int) (*VisitStatistics, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	stats := &VisitStatistics{Days: days}
	base := s.DB.Model(&models.Visit{}).Where("visited_at >= ?", since)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	counts := []struct {
		status models.VisitStatus
		dest   *int64
	}{
		{models.VisitStatusWaiting, &stats.Waiting},
		{models.VisitStatusNotified, &stats.Notified},
		{models.VisitStatusAccepted, &stats.Accepted},
		{models.VisitStatusUnavailable, &stats.Unavailable},
		{models.VisitStatusCompleted, &stats.Completed},
	}
	for _, c := range counts {
		if err := base.Session(&gorm.Session{}).
			Where("status = ?", c.status).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	return stats, nil
}

// 5 Notify 指名担当者并把状态迁移到 notified
// 状态变更先落库，推送在提交之后才发起，推送失败不会丢掉这次迁移
func (s *VisitService) Notify(visitID, staffID uint) (*models.Visit, error) {
	visit, err := s.GetVisitByID(visitID)
	if err != nil {
		return nil, err
	}

	// 升级造成的再通知允许从 notified/unavailable 再次进入
	switch visit.Status {
	case models.VisitStatusWaiting, models.VisitStatusNotified, models.VisitStatusUnavailable:
	default:
		return nil, ErrInvalidTransition
	}

	var staff models.Staff
	if err := s.DB.Preload("Department").Preload("Substitute1").Preload("Substitute2").
		First(&staff, staffID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}

	firstAssignment := visit.PrimaryStaffID == nil

	updates := map[string]interface{}{
		"status":   models.VisitStatusNotified,
		"staff_id": staff.ID,
	}
	if firstAssignment {
		// 首次指名时锚定升级链
		updates["primary_staff_id"] = staff.ID
	}

	// 带状态守卫的条件更新是每条来访记录的串行化点，
	// 并发迁移只有一个能生效，输家拿到 ErrInvalidTransition
	result := s.DB.Model(&models.Visit{}).
		Where("id = ? AND status = ?", visit.ID, visit.Status).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	s.appendNotifiedStaff(visit, &staff)

	updated, err := s.GetVisitByID(visit.ID)
	if err != nil {
		return nil, err
	}

	kind := KindVisitorNotification
	if !firstAssignment {
		kind = KindEscalationNotification
	}
	s.Notifier.Dispatch(NotificationEvent{
		Kind:  kind,
		Visit: *updated,
		Staff: &staff,
	})

	return updated, nil
}

// 6 Respond 记录担当者的响应决定
func (s *VisitService) Respond(visitID uint, decision, message string) (*models.Visit, error) {
	var nextStatus models.VisitStatus
	switch decision {
	case DecisionAvailable:
		nextStatus = models.VisitStatusAccepted
	case DecisionUnavailable:
		nextStatus = models.VisitStatusUnavailable
	default:
		return nil, ErrInvalidDecision
	}

	visit, err := s.GetVisitByID(visitID)
	if err != nil {
		return nil, err
	}

	// 只有已通知状态才允许响应
	if visit.Status != models.VisitStatusNotified {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	result := s.DB.Model(&models.Visit{}).
		Where("id = ? AND status = ?", visit.ID, models.VisitStatusNotified).
		Updates(map[string]interface{}{
			"status":           nextStatus,
			"response_message": message,
			"response_time":    now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	updated, err := s.GetVisitByID(visit.ID)
	if err != nil {
		return nil, err
	}

	// 受付端刷新
	s.Notifier.Dispatch(NotificationEvent{
		Kind:  KindVisitStatusUpdate,
		Visit: *updated,
	})

	return updated, nil
}

// 7 Escalate 沿升级链把来访记录改派给下一个通知对象
// 升级级别只增不减，到达总务后不再产生担当者推送，只刷新受付端
func (s *VisitService) Escalate(visitID uint) (*EscalationResult, error) {
	visit, err := s.GetVisitByID(visitID)
	if err != nil {
		return nil, err
	}

	switch visit.Status {
	case models.VisitStatusNotified, models.VisitStatusUnavailable:
	default:
		return nil, ErrInvalidTransition
	}

	primary := visit.PrimaryStaff
	if primary == nil {
		primary = visit.Staff
	}

	target, err := NextEscalationTarget(primary, visit.EscalationLevel)
	if err != nil {
		return nil, err
	}

	// 总务兜底：级别封顶，担当者保持为最后一个真人通知对象
	escalatable := []models.VisitStatus{models.VisitStatusNotified, models.VisitStatusUnavailable}

	if target.GeneralAffairs {
		result := s.DB.Model(&models.Visit{}).
			Where("id = ? AND escalation_level = ? AND status IN ?",
				visit.ID, visit.EscalationLevel, escalatable).
			Update("escalation_level", target.NextLevel)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, s.escalationRaceError(visit.ID)
		}

		updated, err := s.GetVisitByID(visit.ID)
		if err != nil {
			return nil, err
		}

		log.Printf("[VISIT] 升级到总务: id=%d", visit.ID)
		s.Notifier.Dispatch(NotificationEvent{
			Kind:  KindVisitStatusUpdate,
			Visit: *updated,
		})

		return &EscalationResult{
			Visit:                 updated,
			GeneralAffairs:        true,
			GeneralAffairsContact: s.generalAffairsContact(),
			EscalationLevel:       updated.EscalationLevel,
		}, nil
	}

	// 改派给代理人，状态回到 notified
	result := s.DB.Model(&models.Visit{}).
		Where("id = ? AND escalation_level = ? AND status IN ?",
			visit.ID, visit.EscalationLevel, escalatable).
		Updates(map[string]interface{}{
			"staff_id":         target.Staff.ID,
			"escalation_level": target.NextLevel,
			"status":           models.VisitStatusNotified,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, s.escalationRaceError(visit.ID)
	}

	s.appendNotifiedStaff(visit, target.Staff)

	updated, err := s.GetVisitByID(visit.ID)
	if err != nil {
		return nil, err
	}

	// 补全新担当者的部署信息用于 Webhook
	var staff models.Staff
	if err := s.DB.Preload("Department").First(&staff, target.Staff.ID).Error; err != nil {
		staff = *target.Staff
	}

	log.Printf("[VISIT] 升级改派: id=%d, 新担当者=%s, 级别=%d",
		visit.ID, staff.Name, updated.EscalationLevel)
	s.Notifier.Dispatch(NotificationEvent{
		Kind:  KindEscalationNotification,
		Visit: *updated,
		Staff: &staff,
	})

	return &EscalationResult{
		Visit:           updated,
		EscalatedTo:     &staff,
		EscalationLevel: updated.EscalationLevel,
	}, nil
}

// 8 Complete 接待结束，从 accepted/unavailable 收束到 completed
func (s *VisitService) Complete(visitID uint) (*models.Visit, error) {
	visit, err := s.GetVisitByID(visitID)
	if err != nil {
		return nil, err
	}

	if !visit.Status.CanTransitionTo(models.VisitStatusCompleted) {
		return nil, ErrInvalidTransition
	}

	result := s.DB.Model(&models.Visit{}).
		Where("id = ? AND status = ?", visit.ID, visit.Status).
		Update("status", models.VisitStatusCompleted)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	updated, err := s.GetVisitByID(visit.ID)
	if err != nil {
		return nil, err
	}

	s.Notifier.Dispatch(NotificationEvent{
		Kind:  KindVisitStatusUpdate,
		Visit: *updated,
	})

	return updated, nil
}

// 9 Cancel 访客主动中止受付，直接删除来访记录
// 这是「放弃草稿」而不是「记录结果」，只允许在 waiting/notified 阶段执行
func (s *VisitService) Cancel(visitID uint) error {
	visit, err := s.GetVisitByID(visitID)
	if err != nil {
		return err
	}

	switch visit.Status {
	case models.VisitStatusWaiting, models.VisitStatusNotified:
	default:
		return ErrInvalidTransition
	}

	result := s.DB.
		Where("id = ? AND status IN ?", visit.ID,
			[]models.VisitStatus{models.VisitStatusWaiting, models.VisitStatusNotified}).
		Delete(&models.Visit{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}

	log.Printf("[VISIT] 取消并删除来访记录: id=%d", visit.ID)
	return nil
}

// escalationRaceError 并发升级落败时，按落库后的状态换算错误
func (s *VisitService) escalationRaceError(visitID uint) error {
	current, err := s.GetVisitByID(visitID)
	if err != nil {
		return err
	}
	if current.EscalationLevel >= models.MaxEscalationLevel {
		return ErrEscalationExhausted
	}
	return ErrInvalidTransition
}

// generalAffairsContact 读取总务联系邮箱设置，未配置时返回空串
func (s *VisitService) generalAffairsContact() string {
	var setting models.SystemSetting
	if err := s.DB.Where("`key` = ?", models.SettingGeneralAffairsEmail).
		First(&setting).Error; err != nil {
		return ""
	}
	return setting.Value
}

// appendNotifiedStaff 把社员追加进通知历史，失败只记录不影响主流程
func (s *VisitService) appendNotifiedStaff(visit *models.Visit, staff *models.Staff) {
	if err := s.DB.Model(visit).Association("NotifiedStaff").Append(staff); err != nil {
		log.Printf("[VISIT] 记录通知历史失败: visit=%d, staff=%d, err=%v",
			visit.ID, staff.ID, err)
	}
}
