package models

import (
	"time"
)

// DepartmentType 部署类型
type DepartmentType string

const (
	DepartmentTypeHeadquarters DepartmentType = "headquarters" // 本部
	DepartmentTypeDepartment   DepartmentType = "department"   // 部
	DepartmentTypeSection      DepartmentType = "section"      // 課
	DepartmentTypeSpecial      DepartmentType = "special"      // 例外部门
)

// Department 表示部署，通过 parent 自引用构成层级
type Department struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"type:varchar(100);not null" json:"name"`
	DepartmentType DepartmentType `gorm:"type:varchar(20)" json:"department_type"`

	ParentID *uint        `json:"parent_id"`
	Parent   *Department  `gorm:"foreignKey:ParentID" json:"-"`
	Children []Department `gorm:"foreignKey:ParentID" json:"children,omitempty"`

	Order int `gorm:"default:0" json:"order"`

	// 部署配置的外部聊天系统 Webhook 地址，为空表示不推送
	WebhookURL string `gorm:"type:varchar(255)" json:"webhook_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
