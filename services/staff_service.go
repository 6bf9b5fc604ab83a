package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Kasai-Ohara-Tsu/apo2/models"
)

// InterfaceStaffService 定义社员服务接口
type InterfaceStaffService interface {
	CreateStaff(staff *models.Staff) error
	GetStaffByID(id uint) (*models.Staff, error)
	GetAllStaffs(pagination *models.PaginationQuery) ([]models.Staff, int64, error)
	SearchStaffs(keyword string) ([]models.Staff, error)
	UpdateStaff(id uint, updates map[string]interface{}) (*models.Staff, error)
	DeleteStaff(id uint) error
}

// StaffService 提供社员相关的服务
type StaffService struct {
	DB *gorm.DB
}

// NewStaffService 创建一个新的社员服务
func NewStaffService(db *gorm.DB) InterfaceStaffService {
	return &StaffService{DB: db}
}

// 1 CreateStaff 创建新社员
func (s *StaffService) CreateStaff(staff *models.Staff) error {
	// 工号唯一
	var count int64
	if err := s.DB.Model(&models.Staff{}).
		Where("employee_number = ?", staff.EmployeeNumber).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("工号已存在")
	}
	return s.DB.Create(staff).Error
}

// 2 GetStaffByID 根据ID获取社员，带上部署和两级代理人
func (s *StaffService) GetStaffByID(id uint) (*models.Staff, error) {
	var staff models.Staff
	err := s.DB.
		Preload("Department").
		Preload("Substitute1").
		Preload("Substitute2").
		First(&staff, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return &staff, nil
}

// 3 GetAllStaffs 获取所有在职社员，支持分页
func (s *StaffService) GetAllStaffs(pagination *models.PaginationQuery) ([]models.Staff, int64, error) {
	var staffs []models.Staff
	var total int64

	query := s.DB.Model(&models.Staff{}).Where("is_active = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (pagination.PageNum - 1) * pagination.PageSize
	err := query.Preload("Department").
		Order("name_kana ASC").
		Limit(pagination.PageSize).Offset(offset).
		Find(&staffs).Error
	if err != nil {
		return nil, 0, err
	}

	return staffs, total, nil
}

// 4 SearchStaffs 按姓名/假名/工号模糊检索在职社员
func (s *StaffService) SearchStaffs(keyword string) ([]models.Staff, error) {
	var staffs []models.Staff
	if keyword == "" {
		return staffs, nil
	}

	pattern := "%" + keyword + "%"
	err := s.DB.Where("is_active = ?", true).
		Where("name LIKE ? OR name_kana LIKE ? OR employee_number LIKE ?",
			pattern, pattern, pattern).
		Preload("Department").
		Order("name_kana ASC").
		Limit(50).
		Find(&staffs).Error
	if err != nil {
		return nil, err
	}

	return staffs, nil
}

// 5 UpdateStaff 更新社员信息
func (s *StaffService) UpdateStaff(id uint, updates map[string]interface{}) (*models.Staff, error) {
	staff, err := s.GetStaffByID(id)
	if err != nil {
		return nil, err
	}

	// 代理人不能指向自己
	for _, key := range []string{"substitute1_id", "substitute2_id"} {
		if v, ok := updates[key]; ok {
			if subID, ok := v.(uint); ok && subID == id {
				return nil, errors.New("代理人不能设置为本人")
			}
		}
	}

	if err := s.DB.Model(staff).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetStaffByID(id)
}

// 6 DeleteStaff 删除社员（软删除为离职）
func (s *StaffService) DeleteStaff(id uint) error {
	staff, err := s.GetStaffByID(id)
	if err != nil {
		return err
	}
	return s.DB.Model(staff).Update("is_active", false).Error
}
