package models

import (
	"time"
)

// 系统设置键
const (
	// SettingEscalationIntervalSeconds 受付画面等待多少秒后触发升级
	SettingEscalationIntervalSeconds = "escalation_interval_seconds"
	// SettingGeneralAffairsEmail 总务兜底通知邮箱
	SettingGeneralAffairsEmail = "general_affairs_email"
)

// SystemSetting 通用键值系统设置
type SystemSetting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"type:varchar(100);unique;not null" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Description string    `gorm:"type:text" json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}
