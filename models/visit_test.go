package models

import "testing"

func TestVisitStatusTransitions(t *testing.T) {
	cases := []struct {
		from    VisitStatus
		to      VisitStatus
		allowed bool
	}{
		{VisitStatusWaiting, VisitStatusNotified, true},
		{VisitStatusWaiting, VisitStatusCancelled, true},
		{VisitStatusWaiting, VisitStatusAccepted, false},
		{VisitStatusNotified, VisitStatusAccepted, true},
		{VisitStatusNotified, VisitStatusUnavailable, true},
		{VisitStatusNotified, VisitStatusCancelled, true},
		{VisitStatusNotified, VisitStatusCompleted, false},
		{VisitStatusAccepted, VisitStatusCompleted, true},
		{VisitStatusAccepted, VisitStatusCancelled, false},
		{VisitStatusUnavailable, VisitStatusNotified, true},
		{VisitStatusUnavailable, VisitStatusCompleted, true},
		{VisitStatusUnavailable, VisitStatusCancelled, false},
		{VisitStatusCompleted, VisitStatusNotified, false},
		{VisitStatusCancelled, VisitStatusNotified, false},
		// 自环一律不允许
		{VisitStatusWaiting, VisitStatusWaiting, false},
		{VisitStatusNotified, VisitStatusNotified, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.allowed {
			t.Errorf("%s → %s: 期望 %v，实际 %v", c.from, c.to, c.allowed, got)
		}
	}
}

func TestVisitStatusTerminal(t *testing.T) {
	for _, s := range []VisitStatus{VisitStatusCompleted, VisitStatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s 应为终止状态", s)
		}
	}
	for _, s := range []VisitStatus{VisitStatusWaiting, VisitStatusNotified, VisitStatusAccepted, VisitStatusUnavailable} {
		if s.IsTerminal() {
			t.Errorf("%s 不应为终止状态", s)
		}
	}
}

func TestPurposeTextPrefersPreset(t *testing.T) {
	v := &Visit{PurposePreset: "新規取引のご相談", PurposeCustom: "打ち合わせ"}
	if v.PurposeText() != "新規取引のご相談" {
		t.Error("固定选项应优先于自由输入")
	}

	v = &Visit{PurposeCustom: "打ち合わせ"}
	if v.PurposeText() != "打ち合わせ" {
		t.Error("固定选项为空时应回退到自由输入")
	}
}
