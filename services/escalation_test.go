package services

import (
	"errors"
	"testing"

	"github.com/Kasai-Ohara-Tsu/apo2/models"
)

// 构造一条完整的升级链：担当者 → 代理1 → 代理2
func chainedStaff() *models.Staff {
	sub1 := &models.Staff{ID: 2, Name: "田中"}
	sub2 := &models.Staff{ID: 3, Name: "佐藤"}
	return &models.Staff{
		ID:          1,
		Name:        "青山",
		Substitute1: sub1,
		Substitute2: sub2,
	}
}

func TestNextEscalationTargetChain(t *testing.T) {
	primary := chainedStaff()

	// 级别0 → 代理1
	target, err := NextEscalationTarget(primary, 0)
	if err != nil {
		t.Fatalf("级别0升级失败: %v", err)
	}
	if target.GeneralAffairs {
		t.Fatal("级别0不应该落到总务")
	}
	if target.Staff.ID != 2 {
		t.Errorf("级别0应升级到代理1(id=2)，实际 id=%d", target.Staff.ID)
	}
	if target.NextLevel != 1 {
		t.Errorf("升级后级别应为1，实际 %d", target.NextLevel)
	}

	// 级别1 → 代理2（仍然取最初担当者的代理2，不是代理1的代理）
	target, err = NextEscalationTarget(primary, 1)
	if err != nil {
		t.Fatalf("级别1升级失败: %v", err)
	}
	if target.Staff.ID != 3 {
		t.Errorf("级别1应升级到代理2(id=3)，实际 id=%d", target.Staff.ID)
	}
	if target.NextLevel != 2 {
		t.Errorf("升级后级别应为2，实际 %d", target.NextLevel)
	}

	// 级别2 → 总务兜底
	target, err = NextEscalationTarget(primary, 2)
	if err != nil {
		t.Fatalf("级别2升级失败: %v", err)
	}
	if !target.GeneralAffairs {
		t.Fatal("级别2应落到总务")
	}
	if target.Staff != nil {
		t.Error("总务兜底不应带具体社员")
	}
	if target.NextLevel != models.MaxEscalationLevel {
		t.Errorf("总务兜底级别应为%d，实际 %d", models.MaxEscalationLevel, target.NextLevel)
	}
}

func TestNextEscalationTargetExhausted(t *testing.T) {
	primary := chainedStaff()

	for _, level := range []int{models.MaxEscalationLevel, models.MaxEscalationLevel + 1} {
		if _, err := NextEscalationTarget(primary, level); !errors.Is(err, ErrEscalationExhausted) {
			t.Errorf("级别%d应返回 ErrEscalationExhausted，实际 %v", level, err)
		}
	}
}

func TestNextEscalationTargetMissingSubstitute(t *testing.T) {
	// 没有设置任何代理人
	lone := &models.Staff{ID: 1, Name: "青山"}

	if _, err := NextEscalationTarget(lone, 0); !errors.Is(err, ErrNoSubstituteAvailable) {
		t.Errorf("代理1未设置时应返回 ErrNoSubstituteAvailable，实际 %v", err)
	}

	// 只设置了代理1
	lone.Substitute1 = &models.Staff{ID: 2, Name: "田中"}
	if _, err := NextEscalationTarget(lone, 1); !errors.Is(err, ErrNoSubstituteAvailable) {
		t.Errorf("代理2未设置时应返回 ErrNoSubstituteAvailable，实际 %v", err)
	}

	// 级别2的总务兜底不依赖代理人设置
	if target, err := NextEscalationTarget(lone, 2); err != nil || !target.GeneralAffairs {
		t.Errorf("级别2应无条件落到总务，实际 target=%v, err=%v", target, err)
	}
}

func TestNextEscalationTargetNilPrimary(t *testing.T) {
	if _, err := NextEscalationTarget(nil, 0); !errors.Is(err, ErrNoSubstituteAvailable) {
		t.Errorf("担当者为空时应返回 ErrNoSubstituteAvailable，实际 %v", err)
	}
}
