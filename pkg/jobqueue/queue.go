package jobqueue

import (
	"context"
	"time"
)

// 任务类型
const (
	KindSessionTimeout = "session_timeout"
)

// Payload 延时任务载荷
type Payload struct {
	Kind      string `json:"kind"`
	SessionID uint   `json:"session_id"`
}

// Job 一条已入队的延时任务
type Job struct {
	Handle  string    `json:"handle"`
	Payload Payload   `json:"payload"`
	FireAt  time.Time `json:"fire_at"`
}

// Queue 延时任务队列。入队返回的 handle 是取消/查询的唯一凭证。
type Queue interface {
	// Enqueue 在 fireAt 时刻触发一条任务
	Enqueue(ctx context.Context, payload Payload, fireAt time.Time) (string, error)

	// Cancel 删除未触发的任务，返回是否真的删除了
	Cancel(ctx context.Context, handle string) (bool, error)

	// Lookup 查询未触发的任务，不存在时返回 (nil, nil)
	Lookup(ctx context.Context, handle string) (*Job, error)

	// PopDue 原子弹出所有到期任务，供分发器消费
	PopDue(ctx context.Context, now time.Time) ([]Job, error)
}
