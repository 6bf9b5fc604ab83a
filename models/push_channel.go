package models

import (
	"fmt"
	"log"
	"sync"
)

// ChannelReception 受付端末使用的单例频道
const ChannelReception = "reception"

// StaffChannelName 返回指定社员的逻辑频道名
func StaffChannelName(staffID uint) string {
	return fmt.Sprintf("staff_%d", staffID)
}

// PushConnection 是注册表可见的连接抽象
// Enqueue 将一帧写入连接的出站队列，队列已满或连接已关闭时返回 false，
// 绝不阻塞广播方
type PushConnection interface {
	ConnectionID() string
	Enqueue(payload []byte) bool
}

// ChannelRegistry 管理逻辑频道与在线连接的成员关系
// 一个频道可以有零个或多个连接，一个连接也可以加入多个频道
type ChannelRegistry struct {
	channels map[string]map[string]PushConnection // 频道名 -> 连接ID -> 连接
	joined   map[string]map[string]bool           // 连接ID -> 已加入的频道集合
	mu       sync.RWMutex                         // 读写锁保护两张映射
}

// NewChannelRegistry 创建一个新的频道注册表
func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{
		channels: make(map[string]map[string]PushConnection),
		joined:   make(map[string]map[string]bool),
	}
}

// Join 将连接加入指定频道
func (r *ChannelRegistry) Join(channel string, conn PushConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := conn.ConnectionID()
	if r.channels[channel] == nil {
		r.channels[channel] = make(map[string]PushConnection)
	}
	r.channels[channel][id] = conn

	if r.joined[id] == nil {
		r.joined[id] = make(map[string]bool)
	}
	r.joined[id][channel] = true

	log.Printf("[PUSH] 连接加入频道: channel=%s, conn=%s, 当前成员数=%d",
		channel, id, len(r.channels[channel]))
}

// Leave 将连接从指定频道移除
func (r *ChannelRegistry) Leave(channel string, conn PushConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(channel, conn.ConnectionID())
}

// RemoveConnection 将连接从它加入过的所有频道移除，断线时调用
func (r *ChannelRegistry) RemoveConnection(conn PushConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := conn.ConnectionID()
	for channel := range r.joined[id] {
		r.leaveLocked(channel, id)
	}
}

// leaveLocked 在持有写锁的前提下执行移除
func (r *ChannelRegistry) leaveLocked(channel, connID string) {
	if members, ok := r.channels[channel]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.channels, channel)
		}
	}
	if channels, ok := r.joined[connID]; ok {
		delete(channels, channel)
		if len(channels) == 0 {
			delete(r.joined, connID)
		}
	}
	log.Printf("[PUSH] 连接离开频道: channel=%s, conn=%s", channel, connID)
}

// Broadcast 将同一份载荷投递给频道内的所有在线连接
// 频道没有成员时不算错误，直接返回0；返回成功入队的连接数
func (r *ChannelRegistry) Broadcast(channel string, payload []byte) int {
	r.mu.RLock()
	members := make([]PushConnection, 0, len(r.channels[channel]))
	for _, conn := range r.channels[channel] {
		members = append(members, conn)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range members {
		if conn.Enqueue(payload) {
			delivered++
		} else {
			// 慢消费者或已关闭的连接不能拖住广播方，丢帧并记录
			log.Printf("[PUSH] 连接出站队列已满，丢弃消息: channel=%s, conn=%s",
				channel, conn.ConnectionID())
		}
	}
	return delivered
}

// MemberCount 返回频道当前的在线连接数
func (r *ChannelRegistry) MemberCount(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channel])
}
