package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/Kasai-Ohara-Tsu/apo2/utils"
)

// Admin represents system administrators
type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(50);unique;not null" json:"username"`
	Password  string    `gorm:"type:varchar(100);not null" json:"-"` // Password not exposed in JSON
	Email     string    `gorm:"type:varchar(100);unique" json:"email"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	// 如果提供了密码且尚未哈希，对其进行哈希处理
	if a.Password != "" && len(a.Password) < 60 {
		hashedPassword, err := utils.HashPassword(a.Password)
		if err != nil {
			return err
		}
		a.Password = hashedPassword
	}
	return nil
}
