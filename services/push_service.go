package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Kasai-Ohara-Tsu/apo2/models"
)

const (
	// 单次写操作的超时
	pushWriteWait = 10 * time.Second
	// 收到对端 pong 的最长等待时间，超过视为静默死亡
	pushPongWait = 60 * time.Second
	// 控制帧 ping 的发送周期，必须小于 pushPongWait
	pushPingPeriod = 54 * time.Second
	// 入站帧大小上限，客户端只会发心跳
	pushMaxMessageSize = 512
	// 每个连接的出站队列容量，队列满时丢弃新帧
	pushSendQueueSize = 16
)

// InterfacePushService 定义推送连接服务接口
type InterfacePushService interface {
	Registry() *models.ChannelRegistry
	Attach(channel string, ws *websocket.Conn)
}

// PushService 管理 WebSocket 推送连接的生命周期
type PushService struct {
	registry *models.ChannelRegistry
}

// NewPushService 创建一个新的推送连接服务
func NewPushService(registry *models.ChannelRegistry) InterfacePushService {
	return &PushService{registry: registry}
}

// Registry 返回频道注册表
func (s *PushService) Registry() *models.ChannelRegistry {
	return s.registry
}

// Attach 将升级完成的 WebSocket 连接挂入指定频道并启动读写协程
func (s *PushService) Attach(channel string, ws *websocket.Conn) {
	client := &pushClient{
		id:       uuid.New().String(),
		channel:  channel,
		conn:     ws,
		send:     make(chan []byte, pushSendQueueSize),
		registry: s.registry,
		done:     make(chan struct{}),
	}

	s.registry.Join(channel, client)

	go client.writePump()
	go client.readPump()
}

// pushClient 包装一个 WebSocket 连接，实现 models.PushConnection
type pushClient struct {
	id       string
	channel  string
	conn     *websocket.Conn
	send     chan []byte
	registry *models.ChannelRegistry
	done     chan struct{}
	once     sync.Once
}

// ConnectionID 返回连接的唯一标识
func (c *pushClient) ConnectionID() string {
	return c.id
}

// Enqueue 非阻塞地将一帧写入出站队列，队列满或连接已关闭时返回 false
func (c *pushClient) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close 注销连接并关闭底层 socket，只会执行一次
func (c *pushClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.registry.RemoveConnection(c)
		c.conn.Close()
		log.Printf("[PUSH] 连接关闭: channel=%s, conn=%s", c.channel, c.id)
	})
}

// heartbeatFrame 客户端发来的心跳请求
type heartbeatFrame struct {
	Type string `json:"type"`
}

// readPump 读取入站帧，处理心跳并探测对端存活
func (c *pushClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(pushMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pushPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pushPongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[PUSH] 连接异常断开: conn=%s, err=%v", c.id, err)
			}
			return
		}

		var frame heartbeatFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			log.Printf("[PUSH] 解析入站帧失败: conn=%s, err=%v", c.id, err)
			continue
		}

		// 客户端心跳，回复 pong
		if frame.Type == "ping" {
			c.Enqueue([]byte(`{"type":"pong"}`))
		}
	}
}

// writePump 消费出站队列并周期性发送控制帧 ping
func (c *pushClient) writePump() {
	ticker := time.NewTicker(pushPingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(pushWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(pushWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
