package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Kasai-Ohara-Tsu/apo2/config"
	"github.com/Kasai-Ohara-Tsu/apo2/models"
	"github.com/Kasai-Ohara-Tsu/apo2/utils"
)

// ErrInvalidCredentials 用户名或密码错误
var ErrInvalidCredentials = errors.New("用户名或密码错误")

// InterfaceAdminService 定义管理员服务接口
type InterfaceAdminService interface {
	Authenticate(username, password string) (*models.Admin, error)
	GetAdminByID(id uint) (*models.Admin, error)
	CreateAdmin(admin *models.Admin) error
	UpdateAdmin(id uint, updates map[string]interface{}) (*models.Admin, error)
	EnsureDefaultAdmin() error
}

// AdminService 提供管理员相关的服务
type AdminService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewAdminService 创建一个新的管理员服务
func NewAdminService(db *gorm.DB, cfg *config.Config) InterfaceAdminService {
	return &AdminService{
		DB:     db,
		Config: cfg,
	}
}

// 1 Authenticate 校验用户名和密码
func (s *AdminService) Authenticate(username, password string) (*models.Admin, error) {
	var admin models.Admin
	if err := s.DB.Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPasswordHash(password, admin.Password) {
		return nil, ErrInvalidCredentials
	}

	return &admin, nil
}

// 2 GetAdminByID 根据ID获取管理员
func (s *AdminService) GetAdminByID(id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := s.DB.First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("管理员不存在")
		}
		return nil, err
	}
	return &admin, nil
}

// 3 CreateAdmin 创建新管理员
func (s *AdminService) CreateAdmin(admin *models.Admin) error {
	// 验证用户名唯一性
	var count int64
	if err := s.DB.Model(&models.Admin{}).Where("username = ?", admin.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("用户名已存在")
	}

	return s.DB.Create(admin).Error
}

// 4 UpdateAdmin 更新管理员信息
func (s *AdminService) UpdateAdmin(id uint, updates map[string]interface{}) (*models.Admin, error) {
	admin, err := s.GetAdminByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新密码，需要进行哈希处理
	if password, ok := updates["password"].(string); ok {
		hashedPassword, err := utils.HashPassword(password)
		if err != nil {
			return nil, errors.New("密码加密失败")
		}
		updates["password"] = hashedPassword
	}

	if err := s.DB.Model(admin).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.GetAdminByID(id)
}

// 5 EnsureDefaultAdmin 系统首次启动时创建默认管理员
func (s *AdminService) EnsureDefaultAdmin() error {
	var count int64
	if err := s.DB.Model(&models.Admin{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := &models.Admin{
		Username: "admin",
		Password: s.Config.DefaultAdminPassword,
	}
	return s.DB.Create(admin).Error
}
