package services

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Kasai-Ohara-Tsu/apo2/config"
	"github.com/Kasai-Ohara-Tsu/apo2/models"
)

// recordingNotifier 只记录事件，不做任何投递
type recordingNotifier struct {
	events []NotificationEvent
}

func (n *recordingNotifier) Dispatch(event NotificationEvent) {
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Shutdown() {}

func (n *recordingNotifier) lastEvent(t *testing.T) NotificationEvent {
	t.Helper()
	if len(n.events) == 0 {
		t.Fatal("期望至少有一个通知事件")
	}
	return n.events[len(n.events)-1]
}

var testDBSeq int

// newTestDB 每个测试使用独立的内存数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBSeq++
	dsn := fmt.Sprintf("file:visit_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// 允许回调里的第二个连接立即写库
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Department{},
		&models.Staff{},
		&models.Visit{},
		&models.SystemSetting{},
	); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}

	return db
}

// testFixture 建好服务和升级链：青山 → 田中 → 佐藤
type testFixture struct {
	db       *gorm.DB
	service  InterfaceVisitService
	notifier *recordingNotifier
	aoyama   *models.Staff
	tanaka   *models.Staff
	sato     *models.Staff
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	db := newTestDB(t)

	dept := &models.Department{Name: "営業部", WebhookURL: ""}
	if err := db.Create(dept).Error; err != nil {
		t.Fatalf("创建部署失败: %v", err)
	}

	sato := &models.Staff{EmployeeNumber: "E0003", Name: "佐藤", DepartmentID: &dept.ID, IsActive: true}
	tanaka := &models.Staff{EmployeeNumber: "E0002", Name: "田中", DepartmentID: &dept.ID, IsActive: true}
	if err := db.Create(sato).Error; err != nil {
		t.Fatalf("创建社员失败: %v", err)
	}
	if err := db.Create(tanaka).Error; err != nil {
		t.Fatalf("创建社员失败: %v", err)
	}

	aoyama := &models.Staff{
		EmployeeNumber: "E0001",
		Name:           "青山",
		DepartmentID:   &dept.ID,
		Substitute1ID:  &tanaka.ID,
		Substitute2ID:  &sato.ID,
		IsActive:       true,
	}
	if err := db.Create(aoyama).Error; err != nil {
		t.Fatalf("创建社员失败: %v", err)
	}

	notifier := &recordingNotifier{}
	cfg := &config.Config{DefaultEscalationSeconds: 5, FrontendBaseURL: "http://localhost:8080"}

	return &testFixture{
		db:       db,
		service:  NewVisitService(db, cfg, notifier),
		notifier: notifier,
		aoyama:   aoyama,
		tanaka:   tanaka,
		sato:     sato,
	}
}

// installCompetingWrite 注册一个一次性回调，在下一条 UPDATE 执行前抢先写库，
// 用来复现读取和守卫更新之间被并发修改的场景
func (f *testFixture) installCompetingWrite(t *testing.T, query string, args ...interface{}) {
	t.Helper()

	fired := false
	err := f.db.Callback().Update().Before("gorm:update").Register("visit_test_competing_write", func(tx *gorm.DB) {
		if fired {
			return
		}
		fired = true
		if err := f.db.Session(&gorm.Session{NewDB: true}).Exec(query, args...).Error; err != nil {
			t.Errorf("竞争写入失败: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("注册更新回调失败: %v", err)
	}
	t.Cleanup(func() {
		_ = f.db.Callback().Update().Remove("visit_test_competing_write")
	})
}

// createVisit 建一条 waiting 状态的来访记录
func (f *testFixture) createVisit(t *testing.T) *models.Visit {
	t.Helper()
	visit, err := f.service.CreateVisit(&CreateVisitInput{
		VisitorName:    "山田太郎",
		VisitorCompany: "株式会社サンプル",
		VisitType:      models.VisitTypeAppointment,
		PurposePreset:  "新規取引のご相談",
	})
	if err != nil {
		t.Fatalf("创建来访记录失败: %v", err)
	}
	return visit
}

func TestCreateVisitDefaults(t *testing.T) {
	f := newFixture(t)

	// 姓名和公司留空时按受付惯例落为「なし」
	visit, err := f.service.CreateVisit(&CreateVisitInput{
		VisitType: models.VisitTypeNoAppointment,
	})
	if err != nil {
		t.Fatalf("创建来访记录失败: %v", err)
	}

	if visit.Status != models.VisitStatusWaiting {
		t.Errorf("初始状态应为 waiting，实际 %s", visit.Status)
	}
	if visit.VisitorName != "なし" || visit.VisitorCompany != "なし" {
		t.Errorf("空白姓名/公司应落为「なし」，实际 %s / %s", visit.VisitorName, visit.VisitorCompany)
	}
	if visit.EscalationLevel != 0 {
		t.Errorf("初始升级级别应为0，实际 %d", visit.EscalationLevel)
	}
	if visit.VisitedAt.IsZero() {
		t.Error("visited_at 应被填充")
	}
}

func TestNotifySetsPrimaryStaff(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	notified, err := f.service.Notify(visit.ID, f.aoyama.ID)
	if err != nil {
		t.Fatalf("通知失败: %v", err)
	}

	if notified.Status != models.VisitStatusNotified {
		t.Errorf("通知后状态应为 notified，实际 %s", notified.Status)
	}
	if notified.PrimaryStaffID == nil || *notified.PrimaryStaffID != f.aoyama.ID {
		t.Error("首次通知应锚定升级链的起点")
	}

	event := f.notifier.lastEvent(t)
	if event.Kind != KindVisitorNotification {
		t.Errorf("首次通知事件类型应为 visitor_notification，实际 %s", event.Kind)
	}
	if event.Staff == nil || event.Staff.ID != f.aoyama.ID {
		t.Error("通知事件应指向被指名的担当者")
	}
}

func TestNotifyUnknownStaff(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	if _, err := f.service.Notify(visit.ID, 9999); !errors.Is(err, ErrStaffNotFound) {
		t.Errorf("不存在的社员应返回 ErrStaffNotFound，实际 %v", err)
	}
}

func TestRespondAvailable(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	if _, err := f.service.Notify(visit.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}

	responded, err := f.service.Respond(visit.ID, DecisionAvailable, "すぐ向かいます")
	if err != nil {
		t.Fatalf("响应失败: %v", err)
	}

	if responded.Status != models.VisitStatusAccepted {
		t.Errorf("available 响应后状态应为 accepted，实际 %s", responded.Status)
	}
	if responded.ResponseMessage != "すぐ向かいます" {
		t.Errorf("响应消息未保存，实际 %q", responded.ResponseMessage)
	}
	if responded.ResponseTime == nil {
		t.Error("response_time 应被填充")
	}

	// 受付端刷新事件
	event := f.notifier.lastEvent(t)
	if event.Kind != KindVisitStatusUpdate {
		t.Errorf("响应后应分发状态刷新事件，实际 %s", event.Kind)
	}
}

func TestRespondRequiresNotified(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	// waiting 状态不允许响应
	if _, err := f.service.Respond(visit.ID, DecisionAvailable, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("waiting 状态的响应应返回 ErrInvalidTransition，实际 %v", err)
	}

	if _, err := f.service.Notify(visit.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}
	if _, err := f.service.Respond(visit.ID, DecisionAvailable, ""); err != nil {
		t.Fatalf("响应失败: %v", err)
	}

	// 已响应的记录不能二次响应
	if _, err := f.service.Respond(visit.ID, DecisionUnavailable, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("二次响应应返回 ErrInvalidTransition，实际 %v", err)
	}
}

func TestRespondInvalidDecision(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	if _, err := f.service.Notify(visit.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}

	if _, err := f.service.Respond(visit.ID, "maybe", ""); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("未知的决定应返回 ErrInvalidDecision，实际 %v", err)
	}
}

func TestEscalationChain(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	// 总务联系邮箱作为兜底时展示给受付端
	setting := &models.SystemSetting{Key: models.SettingGeneralAffairsEmail, Value: "soumu@example.co.jp"}
	if err := f.db.Create(setting).Error; err != nil {
		t.Fatalf("创建设置失败: %v", err)
	}

	if _, err := f.service.Notify(visit.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}

	// 第一次升级 → 田中（青山的代理1）
	result, err := f.service.Escalate(visit.ID)
	if err != nil {
		t.Fatalf("第一次升级失败: %v", err)
	}
	if result.EscalatedTo == nil || result.EscalatedTo.ID != f.tanaka.ID {
		t.Fatal("第一次升级应改派给代理1（田中）")
	}
	if result.EscalationLevel != 1 {
		t.Errorf("第一次升级后级别应为1，实际 %d", result.EscalationLevel)
	}
	if result.Visit.Status != models.VisitStatusNotified {
		t.Errorf("升级后状态应回到 notified，实际 %s", result.Visit.Status)
	}

	event := f.notifier.lastEvent(t)
	if event.Kind != KindEscalationNotification {
		t.Errorf("升级事件类型应为 escalation_notification，实际 %s", event.Kind)
	}

	// 第二次升级 → 佐藤（仍然是青山的代理2，不是田中的代理）
	result, err = f.service.Escalate(visit.ID)
	if err != nil {
		t.Fatalf("第二次升级失败: %v", err)
	}
	if result.EscalatedTo == nil || result.EscalatedTo.ID != f.sato.ID {
		t.Fatal("第二次升级应改派给最初担当者的代理2（佐藤）")
	}
	if result.EscalationLevel != 2 {
		t.Errorf("第二次升级后级别应为2，实际 %d", result.EscalationLevel)
	}

	// 第三次升级 → 总务兜底，担当者保持不变
	result, err = f.service.Escalate(visit.ID)
	if err != nil {
		t.Fatalf("第三次升级失败: %v", err)
	}
	if !result.GeneralAffairs {
		t.Fatal("第三次升级应落到总务")
	}
	if result.EscalationLevel != models.MaxEscalationLevel {
		t.Errorf("总务兜底后级别应为%d，实际 %d", models.MaxEscalationLevel, result.EscalationLevel)
	}
	if result.Visit.StaffID == nil || *result.Visit.StaffID != f.sato.ID {
		t.Error("总务兜底后担当者应保持为最后一个真人通知对象")
	}
	if result.GeneralAffairsContact != "soumu@example.co.jp" {
		t.Errorf("总务兜底应带上联系邮箱，实际 %q", result.GeneralAffairsContact)
	}

	// 总务兜底只刷新受付端
	event = f.notifier.lastEvent(t)
	if event.Kind != KindVisitStatusUpdate {
		t.Errorf("总务兜底应只分发状态刷新事件，实际 %s", event.Kind)
	}

	// 第四次升级 → 已到顶
	if _, err := f.service.Escalate(visit.ID); !errors.Is(err, ErrEscalationExhausted) {
		t.Errorf("到顶后的升级应返回 ErrEscalationExhausted，实际 %v", err)
	}
}

func TestEscalateNoSubstitute(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	// 佐藤没有设置任何代理人
	if _, err := f.service.Notify(visit.ID, f.sato.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}

	if _, err := f.service.Escalate(visit.ID); !errors.Is(err, ErrNoSubstituteAvailable) {
		t.Errorf("代理人未设置时应返回 ErrNoSubstituteAvailable，实际 %v", err)
	}

	// 失败的升级不应改变记录
	current, err := f.service.GetVisitByID(visit.ID)
	if err != nil {
		t.Fatalf("重新读取失败: %v", err)
	}
	if current.EscalationLevel != 0 || current.Status != models.VisitStatusNotified {
		t.Error("升级失败后记录不应有任何变化")
	}
}

func TestEscalateAfterUnavailable(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	if _, err := f.service.Notify(visit.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}
	if _, err := f.service.Respond(visit.ID, DecisionUnavailable, "外出中です"); err != nil {
		t.Fatalf("响应失败: %v", err)
	}

	// unavailable 状态也允许升级
	result, err := f.service.Escalate(visit.ID)
	if err != nil {
		t.Fatalf("升级失败: %v", err)
	}
	if result.EscalatedTo.ID != f.tanaka.ID {
		t.Error("unavailable 后的升级应改派给代理1")
	}
	if result.Visit.Status != models.VisitStatusNotified {
		t.Errorf("升级后状态应回到 notified，实际 %s", result.Visit.Status)
	}
}

func TestEscalateRequiresNotifiedOrUnavailable(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	// waiting 状态不允许升级
	if _, err := f.service.Escalate(visit.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("waiting 状态的升级应返回 ErrInvalidTransition，实际 %v", err)
	}
}

func TestEscalateLosesRaceToRespond(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	if _, err := f.service.Notify(visit.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}

	// 升级读完记录之后、守卫更新之前，担当者抢先回复了接待
	f.installCompetingWrite(t, "UPDATE visits SET status = ? WHERE id = ?",
		string(models.VisitStatusAccepted), visit.ID)

	if _, err := f.service.Escalate(visit.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("竞争落败的升级应返回 ErrInvalidTransition，实际 %v", err)
	}

	// 落败方不能覆盖已接待的状态
	current, err := f.service.GetVisitByID(visit.ID)
	if err != nil {
		t.Fatalf("重新读取失败: %v", err)
	}
	if current.Status != models.VisitStatusAccepted {
		t.Errorf("接待状态被落败的升级覆盖了，实际 %s", current.Status)
	}
	if current.EscalationLevel != 0 {
		t.Errorf("落败的升级不应改变级别，实际 %d", current.EscalationLevel)
	}
	if current.StaffID == nil || *current.StaffID != f.aoyama.ID {
		t.Error("落败的升级不应改派担当者")
	}
}

func TestEscalateLosesRaceToEscalate(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	if _, err := f.service.Notify(visit.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}

	// 另一个受付端抢先把级别推到了总务兜底
	f.installCompetingWrite(t, "UPDATE visits SET escalation_level = ? WHERE id = ?",
		models.MaxEscalationLevel, visit.ID)

	if _, err := f.service.Escalate(visit.ID); !errors.Is(err, ErrEscalationExhausted) {
		t.Errorf("级别已到顶的竞争落败应返回 ErrEscalationExhausted，实际 %v", err)
	}
}

func TestRespondLosesRaceToRespond(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	if _, err := f.service.Notify(visit.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}

	// 响应落库之前，另一台终端抢先回复了外出中
	f.installCompetingWrite(t,
		"UPDATE visits SET status = ?, response_message = ? WHERE id = ?",
		string(models.VisitStatusUnavailable), "外出中です", visit.ID)

	if _, err := f.service.Respond(visit.ID, DecisionAvailable, "すぐ向かいます"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("竞争落败的响应应返回 ErrInvalidTransition，实际 %v", err)
	}

	// 先到的响应不能被覆盖
	current, err := f.service.GetVisitByID(visit.ID)
	if err != nil {
		t.Fatalf("重新读取失败: %v", err)
	}
	if current.Status != models.VisitStatusUnavailable {
		t.Errorf("先到的响应被覆盖了，实际 %s", current.Status)
	}
	if current.ResponseMessage != "外出中です" {
		t.Errorf("响应消息被覆盖了，实际 %q", current.ResponseMessage)
	}
}

func TestNotifiedStaffHistory(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	if _, err := f.service.Notify(visit.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}
	if _, err := f.service.Escalate(visit.ID); err != nil {
		t.Fatalf("升级失败: %v", err)
	}

	current, err := f.service.GetVisitByID(visit.ID)
	if err != nil {
		t.Fatalf("重新读取失败: %v", err)
	}
	if len(current.NotifiedStaff) != 2 {
		t.Fatalf("通知历史应包含2名社员，实际 %d", len(current.NotifiedStaff))
	}
}

func TestCompleteVisit(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	if _, err := f.service.Notify(visit.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}
	if _, err := f.service.Respond(visit.ID, DecisionAvailable, ""); err != nil {
		t.Fatalf("响应失败: %v", err)
	}

	completed, err := f.service.Complete(visit.ID)
	if err != nil {
		t.Fatalf("完了失败: %v", err)
	}
	if completed.Status != models.VisitStatusCompleted {
		t.Errorf("完了后状态应为 completed，实际 %s", completed.Status)
	}

	// 终止状态不允许再操作
	if _, err := f.service.Complete(visit.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("重复完了应返回 ErrInvalidTransition，实际 %v", err)
	}
	if _, err := f.service.Escalate(visit.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("完了后的升级应返回 ErrInvalidTransition，实际 %v", err)
	}
}

func TestCancelDeletesRecord(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	if err := f.service.Cancel(visit.ID); err != nil {
		t.Fatalf("取消失败: %v", err)
	}

	// 取消是放弃草稿，记录直接删除
	if _, err := f.service.GetVisitByID(visit.ID); !errors.Is(err, ErrVisitNotFound) {
		t.Errorf("取消后的记录应不存在，实际 %v", err)
	}
}

func TestCancelOnlyBeforeResponse(t *testing.T) {
	f := newFixture(t)
	visit := f.createVisit(t)

	if _, err := f.service.Notify(visit.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}
	if _, err := f.service.Respond(visit.ID, DecisionAvailable, ""); err != nil {
		t.Fatalf("响应失败: %v", err)
	}

	// 已响应的记录不能取消
	if err := f.service.Cancel(visit.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("accepted 状态的取消应返回 ErrInvalidTransition，实际 %v", err)
	}
}

func TestGetVisitStatistics(t *testing.T) {
	f := newFixture(t)

	v1 := f.createVisit(t)
	f.createVisit(t)

	if _, err := f.service.Notify(v1.ID, f.aoyama.ID); err != nil {
		t.Fatalf("通知失败: %v", err)
	}

	stats, err := f.service.GetVisitStatistics(7)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}

	if stats.Total != 2 {
		t.Errorf("总数应为2，实际 %d", stats.Total)
	}
	if stats.Waiting != 1 || stats.Notified != 1 {
		t.Errorf("按状态计数不正确: waiting=%d, notified=%d", stats.Waiting, stats.Notified)
	}
}

func TestVisitNotFound(t *testing.T) {
	f := newFixture(t)

	if _, err := f.service.GetVisitByID(9999); !errors.Is(err, ErrVisitNotFound) {
		t.Errorf("不存在的记录应返回 ErrVisitNotFound，实际 %v", err)
	}
	if _, err := f.service.Notify(9999, f.aoyama.ID); !errors.Is(err, ErrVisitNotFound) {
		t.Errorf("不存在的记录应返回 ErrVisitNotFound，实际 %v", err)
	}
}
