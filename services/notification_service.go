package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Kasai-Ohara-Tsu/apo2/config"
	"github.com/Kasai-Ohara-Tsu/apo2/models"
)

// NotificationKind 推送事件类型
type NotificationKind string

const (
	// KindVisitorNotification 首次指名担当者
	KindVisitorNotification NotificationKind = "visitor_notification"
	// KindEscalationNotification 升级后改派新的通知对象
	KindEscalationNotification NotificationKind = "escalation_notification"
	// KindVisitStatusUpdate 受付端的状态刷新
	KindVisitStatusUpdate NotificationKind = "visit_status_update"
)

// webhook 请求超时
const webhookTimeout = 5 * time.Second

// webhook 投递协程数量与队列容量
const (
	webhookWorkers   = 4
	webhookQueueSize = 64
)

// NotificationEvent 一次状态变化产生的通知事件
// Visit 是事件发生时刻的快照，Staff 是推送与 Webhook 的目标，
// 为 nil 时只刷新受付端
type NotificationEvent struct {
	Kind  NotificationKind
	Visit models.Visit
	Staff *models.Staff
}

// PushMessage 推送给终端的 JSON 帧
type PushMessage struct {
	Type            NotificationKind `json:"type"`
	VisitID         uint             `json:"visit_id"`
	VisitorName     string           `json:"visitor_name"`
	VisitorCompany  string           `json:"visitor_company"`
	Purpose         string           `json:"purpose"`
	StaffName       string           `json:"staff_name,omitempty"`
	Status          string           `json:"status"`
	EscalationLevel int              `json:"escalation_level"`
	ResponseMessage string           `json:"response_message,omitempty"`
}

// InterfaceNotificationService 定义通知分发服务接口
type InterfaceNotificationService interface {
	Dispatch(event NotificationEvent)
	Shutdown()
}

// NotificationService 把来访事件分发到推送频道和部署 Webhook
// 两条投递路径互相独立，任何一条失败都不影响另一条，
// 也绝不影响触发它的状态迁移
type NotificationService struct {
	Registry *models.ChannelRegistry
	Config   *config.Config

	httpClient *http.Client
	jobs       chan webhookJob
	closed     bool
	mu         sync.Mutex
	wg         sync.WaitGroup
}

// webhookJob 一次待投递的 Webhook 调用
type webhookJob struct {
	URL   string
	Visit models.Visit
	Staff *models.Staff
}

// NewNotificationService 创建一个新的通知分发服务并启动投递协程
func NewNotificationService(registry *models.ChannelRegistry, cfg *config.Config) InterfaceNotificationService {
	service := &NotificationService{
		Registry:   registry,
		Config:     cfg,
		httpClient: &http.Client{Timeout: webhookTimeout},
		jobs:       make(chan webhookJob, webhookQueueSize),
	}

	// Webhook 的投递在独立协程中进行，状态迁移的延迟不受外部系统影响
	for i := 0; i < webhookWorkers; i++ {
		service.wg.Add(1)
		go service.webhookWorker()
	}

	return service
}

// Dispatch 分发一次通知事件
// 推送与 Webhook 都是尽力而为：连接不在线、队列已满、外部系统不可达
// 都只记录日志，调用方看不到任何失败
func (s *NotificationService) Dispatch(event NotificationEvent) {
	message := buildPushMessage(event)
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("[PUSH] 序列化推送消息失败: visit=%d, err=%v", event.Visit.ID, err)
		return
	}

	// 担当者端推送
	if event.Staff != nil && event.Kind != KindVisitStatusUpdate {
		channel := models.StaffChannelName(event.Staff.ID)
		delivered := s.Registry.Broadcast(channel, payload)
		log.Printf("[PUSH] 已广播%s消息: channel=%s, 投递连接数=%d",
			event.Kind, channel, delivered)
	}

	// 受付端状态刷新，所有事件都会触发
	statusUpdate := message
	statusUpdate.Type = KindVisitStatusUpdate
	if statusPayload, err := json.Marshal(statusUpdate); err == nil {
		s.Registry.Broadcast(models.ChannelReception, statusPayload)
	}

	// 部署 Webhook
	if event.Staff != nil && event.Staff.Department != nil && event.Staff.Department.WebhookURL != "" {
		s.enqueueWebhook(webhookJob{
			URL:   event.Staff.Department.WebhookURL,
			Visit: event.Visit,
			Staff: event.Staff,
		})
	}
}

// Shutdown 停止接收新事件并等待在途 Webhook 投递完成
func (s *NotificationService) Shutdown() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// buildPushMessage 从事件构造推送帧
func buildPushMessage(event NotificationEvent) PushMessage {
	message := PushMessage{
		Type:            event.Kind,
		VisitID:         event.Visit.ID,
		VisitorName:     event.Visit.VisitorName,
		VisitorCompany:  event.Visit.VisitorCompany,
		Purpose:         event.Visit.PurposeText(),
		Status:          string(event.Visit.Status),
		EscalationLevel: event.Visit.EscalationLevel,
		ResponseMessage: event.Visit.ResponseMessage,
	}
	if event.Staff != nil {
		message.StaffName = event.Staff.Name
	}
	return message
}

// enqueueWebhook 非阻塞入队，队列满时丢弃并记录
func (s *NotificationService) enqueueWebhook(job webhookJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		log.Printf("[WEBHOOK] 服务已关闭，丢弃投递: visit=%d", job.Visit.ID)
		return
	}

	select {
	case s.jobs <- job:
	default:
		log.Printf("[WEBHOOK] 投递队列已满，丢弃: visit=%d, url=%s", job.Visit.ID, job.URL)
	}
}

// webhookWorker 消费投递队列
func (s *NotificationService) webhookWorker() {
	defer s.wg.Done()

	for job := range s.jobs {
		if err := s.sendWebhook(job); err != nil {
			// Webhook 失败只记录，状态迁移早已提交
			log.Printf("[WEBHOOK] 投递失败: visit=%d, url=%s, err=%v",
				job.Visit.ID, job.URL, err)
		}
	}
}

// sendWebhook 向部署配置的地址 POST 一张消息卡片
func (s *NotificationService) sendWebhook(job webhookJob) error {
	card := s.buildWebhookCard(job.Visit, job.Staff)

	body, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("序列化卡片失败: %w", err)
	}

	resp, err := s.httpClient.Post(job.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	// 响应体不关心，只看状态码
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("返回状态码 %d", resp.StatusCode)
	}

	log.Printf("[WEBHOOK] 投递成功: visit=%d, url=%s", job.Visit.ID, job.URL)
	return nil
}

// buildWebhookCard 构造 Adaptive Card 消息体
func (s *NotificationService) buildWebhookCard(visit models.Visit, staff *models.Staff) map[string]interface{} {
	staffName := ""
	if staff != nil {
		staffName = staff.Name
	}

	visitURL := fmt.Sprintf("%s/visits/%d", s.Config.FrontendBaseURL, visit.ID)

	return map[string]interface{}{
		"type": "message",
		"attachments": []map[string]interface{}{
			{
				"contentType": "application/vnd.microsoft.card.adaptive",
				"content": map[string]interface{}{
					"type":    "AdaptiveCard",
					"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
					"version": "1.0",
					"body": []map[string]interface{}{
						{"type": "TextBlock", "text": "🔔 来客のお知らせ", "weight": "Bolder", "size": "Medium"},
						{"type": "TextBlock", "text": fmt.Sprintf("担当の %s さん、来客です。", staffName)},
						{"type": "FactSet", "facts": []map[string]string{
							{"title": "会社名:", "value": visit.VisitorCompany},
							{"title": "お名前:", "value": visit.VisitorName},
							{"title": "用件:", "value": visit.PurposeText()},
						}},
					},
					"actions": []map[string]interface{}{
						{"type": "Action.OpenUrl", "title": "受付記録を開く", "url": visitURL},
					},
				},
			},
		},
	}
}
