package models

import (
	"time"
)

// Staff 表示社员名簿中的一条记录
// 升级链通过 substitute1/substitute2 两个自引用外键表达：
// 担当者 → 代理1 → 代理2，链深最多为2，再往上只有总务兜底
type Staff struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	EmployeeNumber string `gorm:"type:varchar(20);unique;not null" json:"employee_number"`
	Name           string `gorm:"type:varchar(100);not null" json:"name"`
	NameKana       string `gorm:"type:varchar(100)" json:"name_kana"`

	DepartmentID *uint       `json:"department_id"`
	Department   *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`

	Position string `gorm:"type:varchar(100)" json:"position"`
	Email    string `gorm:"type:varchar(100)" json:"email"`
	Phone    string `gorm:"type:varchar(20)" json:"phone"`
	PhotoURL string `gorm:"type:varchar(255)" json:"photo_url"`

	Substitute1ID *uint  `json:"substitute1_id"`
	Substitute1   *Staff `gorm:"foreignKey:Substitute1ID" json:"substitute1,omitempty"`
	Substitute2ID *uint  `json:"substitute2_id"`
	Substitute2   *Staff `gorm:"foreignKey:Substitute2ID" json:"substitute2,omitempty"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
