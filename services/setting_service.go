package services

import (
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/Kasai-Ohara-Tsu/apo2/config"
	"github.com/Kasai-Ohara-Tsu/apo2/models"
)

// 设置缓存有效期
const settingCacheTTL = 5 * time.Minute

// ErrSettingNotFound 系统设置不存在
var ErrSettingNotFound = errors.New("系统设置不存在")

// InterfaceSettingService 定义系统设置服务接口
type InterfaceSettingService interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value, description string) error
	GetEscalationIntervalSeconds() int
}

// SettingService 提供系统设置服务，读取走 Redis 缓存
type SettingService struct {
	DB     *gorm.DB
	Config *config.Config
	Redis  *RedisService
}

// NewSettingService 创建一个新的系统设置服务
func NewSettingService(db *gorm.DB, cfg *config.Config, redisService *RedisService) InterfaceSettingService {
	return &SettingService{
		DB:     db,
		Config: cfg,
		Redis:  redisService,
	}
}

// 1 GetSetting 读取设置值，优先命中缓存
func (s *SettingService) GetSetting(key string) (string, error) {
	if s.Redis != nil {
		if val, err := s.Redis.GetCachedSetting(key); err == nil {
			return val, nil
		}
	}

	var setting models.SystemSetting
	if err := s.DB.Where("`key` = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSettingNotFound
		}
		return "", err
	}

	if s.Redis != nil {
		// 缓存写失败不影响读路径
		_ = s.Redis.CacheSetting(key, setting.Value, settingCacheTTL)
	}

	return setting.Value, nil
}

// 2 SetSetting 写入设置值并使缓存失效
func (s *SettingService) SetSetting(key, value, description string) error {
	var setting models.SystemSetting
	err := s.DB.Where("`key` = ?", key).First(&setting).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{"value": value}
		if description != "" {
			updates["description"] = description
		}
		if err := s.DB.Model(&setting).Updates(updates).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = models.SystemSetting{Key: key, Value: value, Description: description}
		if err := s.DB.Create(&setting).Error; err != nil {
			return err
		}
	default:
		return err
	}

	if s.Redis != nil {
		_ = s.Redis.InvalidateSetting(key)
	}
	return nil
}

// 3 GetEscalationIntervalSeconds 受付画面轮询用的升级等待秒数
// 设置缺失或非法时退回配置里的默认值
func (s *SettingService) GetEscalationIntervalSeconds() int {
	val, err := s.GetSetting(models.SettingEscalationIntervalSeconds)
	if err != nil {
		return s.Config.DefaultEscalationSeconds
	}

	seconds, err := strconv.Atoi(val)
	if err != nil || seconds <= 0 {
		return s.Config.DefaultEscalationSeconds
	}
	return seconds
}
