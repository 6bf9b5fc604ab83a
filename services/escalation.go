package services

import (
	"errors"

	"github.com/Kasai-Ohara-Tsu/apo2/models"
)

// 来访状态机与升级链的错误
var (
	// ErrVisitNotFound 来访记录不存在
	ErrVisitNotFound = errors.New("来访记录不存在")
	// ErrStaffNotFound 社员不存在
	ErrStaffNotFound = errors.New("社员不存在")
	// ErrInvalidTransition 当前状态不允许该操作
	ErrInvalidTransition = errors.New("当前状态不允许该操作")
	// ErrInvalidDecision 响应决定既不是 available 也不是 unavailable
	ErrInvalidDecision = errors.New("响应决定无效")
	// ErrEscalationExhausted 升级级别已到顶，不能再升级
	ErrEscalationExhausted = errors.New("升级链已到顶")
	// ErrNoSubstituteAvailable 当前级别对应的代理人未设置
	ErrNoSubstituteAvailable = errors.New("当前级别没有可用代理人")
)

// EscalationTarget 升级计算结果：要么是具体社员，要么是总务兜底
type EscalationTarget struct {
	Staff          *models.Staff // GeneralAffairs 为 true 时为 nil
	GeneralAffairs bool
	NextLevel      int
}

// NextEscalationTarget 计算升级链上的下一个通知对象
//
// 升级链锚定在最初的担当者（primary）上：
//
//	级别0 → primary.substitute1
//	级别1 → primary.substitute2
//	级别2 → 总务（终点）
//	级别3以上 → 不能再升级
//
// 对应级别的代理人未设置时直接失败，不会跳级尝试下一个代理人
func NextEscalationTarget(primary *models.Staff, level int) (*EscalationTarget, error) {
	if level >= models.MaxEscalationLevel {
		return nil, ErrEscalationExhausted
	}

	switch level {
	case 0:
		if primary == nil || primary.Substitute1 == nil {
			return nil, ErrNoSubstituteAvailable
		}
		return &EscalationTarget{Staff: primary.Substitute1, NextLevel: 1}, nil
	case 1:
		if primary == nil || primary.Substitute2 == nil {
			return nil, ErrNoSubstituteAvailable
		}
		return &EscalationTarget{Staff: primary.Substitute2, NextLevel: 2}, nil
	case 2:
		return &EscalationTarget{GeneralAffairs: true, NextLevel: models.MaxEscalationLevel}, nil
	default:
		return nil, ErrNoSubstituteAvailable
	}
}
