package models

import (
	"fmt"
	"testing"
)

// fakeConn 只记录收到的载荷，capacity 控制队列容量
type fakeConn struct {
	id       string
	received [][]byte
	capacity int
}

func newFakeConn(id string, capacity int) *fakeConn {
	return &fakeConn{id: id, capacity: capacity}
}

func (c *fakeConn) ConnectionID() string { return c.id }

func (c *fakeConn) Enqueue(payload []byte) bool {
	if len(c.received) >= c.capacity {
		return false
	}
	c.received = append(c.received, payload)
	return true
}

func TestBroadcastEmptyChannelIsNoop(t *testing.T) {
	registry := NewChannelRegistry()

	// 没有成员的频道广播不报错，投递数为0
	delivered := registry.Broadcast("staff_1", []byte("hello"))
	if delivered != 0 {
		t.Errorf("空频道广播应投递0个连接，实际 %d", delivered)
	}
}

func TestBroadcastDeliversToAllMembers(t *testing.T) {
	registry := NewChannelRegistry()

	conns := make([]*fakeConn, 3)
	for i := range conns {
		conns[i] = newFakeConn(fmt.Sprintf("conn-%d", i), 10)
		registry.Join("reception", conns[i])
	}

	payload := []byte(`{"type":"visit_status_update"}`)
	delivered := registry.Broadcast("reception", payload)
	if delivered != 3 {
		t.Fatalf("应投递3个连接，实际 %d", delivered)
	}

	// 所有连接收到同一份载荷
	for _, conn := range conns {
		if len(conn.received) != 1 {
			t.Fatalf("连接 %s 应收到1帧，实际 %d", conn.id, len(conn.received))
		}
		if string(conn.received[0]) != string(payload) {
			t.Errorf("连接 %s 收到的载荷不一致", conn.id)
		}
	}
}

func TestBroadcastSkipsFullQueue(t *testing.T) {
	registry := NewChannelRegistry()

	healthy := newFakeConn("healthy", 10)
	stuck := newFakeConn("stuck", 0)
	registry.Join("staff_1", healthy)
	registry.Join("staff_1", stuck)

	delivered := registry.Broadcast("staff_1", []byte("x"))
	if delivered != 1 {
		t.Errorf("队列满的连接应被跳过，投递数应为1，实际 %d", delivered)
	}
	if len(healthy.received) != 1 {
		t.Errorf("正常连接应收到1帧，实际 %d", len(healthy.received))
	}
	if len(stuck.received) != 0 {
		t.Errorf("满队列连接不应收到帧，实际 %d", len(stuck.received))
	}
}

func TestLeaveRemovesMembership(t *testing.T) {
	registry := NewChannelRegistry()
	conn := newFakeConn("c1", 10)

	registry.Join("reception", conn)
	if registry.MemberCount("reception") != 1 {
		t.Fatal("加入后成员数应为1")
	}

	registry.Leave("reception", conn)
	if registry.MemberCount("reception") != 0 {
		t.Error("离开后成员数应为0")
	}
	if registry.Broadcast("reception", []byte("x")) != 0 {
		t.Error("离开后不应再收到广播")
	}
}

func TestRemoveConnectionLeavesAllChannels(t *testing.T) {
	registry := NewChannelRegistry()
	conn := newFakeConn("c1", 10)

	// 同一连接加入多个频道
	registry.Join("reception", conn)
	registry.Join("staff_1", conn)

	registry.RemoveConnection(conn)

	if registry.MemberCount("reception") != 0 || registry.MemberCount("staff_1") != 0 {
		t.Error("断线后连接应从所有频道移除")
	}
}

func TestStaffChannelName(t *testing.T) {
	if got := StaffChannelName(42); got != "staff_42" {
		t.Errorf("频道名应为 staff_42，实际 %s", got)
	}
}
