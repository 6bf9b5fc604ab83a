package models

import (
	"time"
)

// VisitType 来访类型
type VisitType string

const (
	VisitTypeAppointment   VisitType = "appointment"    // 有预约
	VisitTypeNoAppointment VisitType = "no-appointment" // 无预约
	VisitTypeDelivery      VisitType = "delivery"       // 配送业者
)

// VisitStatus 来访记录状态
type VisitStatus string

const (
	VisitStatusWaiting     VisitStatus = "waiting"     // 待机中
	VisitStatusNotified    VisitStatus = "notified"    // 已通知担当者
	VisitStatusAccepted    VisitStatus = "accepted"    // 担当者已接待
	VisitStatusUnavailable VisitStatus = "unavailable" // 担当者不在
	VisitStatusCompleted   VisitStatus = "completed"   // 完了
	VisitStatusCancelled   VisitStatus = "cancelled"   // 取消
)

// MaxEscalationLevel 升级链的上限：担当者 → 代理1 → 代理2 → 总务
const MaxEscalationLevel = 3

// visitTransitions 定义合法的状态迁移，任何状态都不允许自环
var visitTransitions = map[VisitStatus][]VisitStatus{
	VisitStatusWaiting:     {VisitStatusNotified, VisitStatusCancelled},
	VisitStatusNotified:    {VisitStatusAccepted, VisitStatusUnavailable, VisitStatusCancelled},
	VisitStatusAccepted:    {VisitStatusCompleted},
	VisitStatusUnavailable: {VisitStatusNotified, VisitStatusCompleted},
	VisitStatusCompleted:   {},
	VisitStatusCancelled:   {},
}

// CanTransitionTo 判断是否允许从当前状态迁移到目标状态
func (s VisitStatus) CanTransitionTo(next VisitStatus) bool {
	for _, allowed := range visitTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal 判断是否为终止状态
func (s VisitStatus) IsTerminal() bool {
	return len(visitTransitions[s]) == 0
}

// IsValid 判断状态值是否合法
func (s VisitStatus) IsValid() bool {
	_, ok := visitTransitions[s]
	return ok
}

// Visit 表示一次来访记录，从访客到达到接待结束
type Visit struct {
	ID     uint        `gorm:"primaryKey" json:"id"`
	Status VisitStatus `gorm:"type:varchar(20);default:'waiting';index" json:"status"`

	VisitType      VisitType `gorm:"type:varchar(20)" json:"visit_type"`
	VisitorCompany string    `gorm:"type:varchar(200)" json:"visitor_company"`
	VisitorName    string    `gorm:"type:varchar(100)" json:"visitor_name"`

	// 当前担当者，通知前可以为空
	StaffID *uint  `json:"staff_id"`
	Staff   *Staff `gorm:"foreignKey:StaffID" json:"staff,omitempty"`

	// 最初被指名的担当者，升级链以此为锚点：
	// primary → primary.substitute1 → primary.substitute2 → 总务
	PrimaryStaffID *uint  `json:"primary_staff_id"`
	PrimaryStaff   *Staff `gorm:"foreignKey:PrimaryStaffID" json:"primary_staff,omitempty"`

	// 来访目的：固定选项和自由输入二选一，都可以为空
	PurposePreset string `gorm:"type:varchar(100)" json:"purpose_preset"`
	PurposeCustom string `gorm:"type:text" json:"purpose_custom"`
	PurposeType   string `gorm:"type:varchar(100)" json:"purpose_type"`

	// 担当者响应，只能由 Respond 设置
	ResponseMessage string     `gorm:"type:text" json:"response_message"`
	ResponseTime    *time.Time `json:"response_time"`

	// 升级级别，单调不减，上限为 MaxEscalationLevel
	EscalationLevel int `gorm:"default:0" json:"escalation_level"`

	// 曾经被通知过的全部社员，只追加，用于留痕
	NotifiedStaff []Staff `gorm:"many2many:visit_notified_staff;" json:"notified_staff,omitempty"`

	VisitedAt time.Time `json:"visited_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PurposeText 返回展示用的来访目的，优先固定选项
func (v *Visit) PurposeText() string {
	if v.PurposePreset != "" {
		return v.PurposePreset
	}
	return v.PurposeCustom
}

// PurposePresets 受付画面提供的固定目的选项
var PurposePresets = []string{
	"新規取引のご相談",
	"既存取引のご相談",
	"配達・納品の方",
	"集荷の方",
	"その他のお問い合わせ",
}
