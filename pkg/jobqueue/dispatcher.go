package jobqueue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"LoneGuard/pkg/logger"
)

// HandlerFunc 任务触发回调
type HandlerFunc func(ctx context.Context, job Job)

// Dispatcher 轮询队列并派发到期任务
type Dispatcher struct {
	queue    Queue
	interval time.Duration
	handlers map[string]HandlerFunc
}

func NewDispatcher(queue Queue, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Dispatcher{
		queue:    queue,
		interval: interval,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register 按任务类型注册处理函数，需在 Run 之前调用
func (d *Dispatcher) Register(kind string, fn HandlerFunc) {
	d.handlers[kind] = fn
}

func (d *Dispatcher) Run(ctx context.Context) {
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			d.tick(ctx, now)
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context, now time.Time) {
	due, err := d.queue.PopDue(ctx, now)
	if err != nil {
		logger.Warn("job queue poll failed", zap.Error(err))
		return
	}
	for _, job := range due {
		fn, ok := d.handlers[job.Payload.Kind]
		if !ok {
			logger.Warn("no handler for job kind",
				zap.String("kind", job.Payload.Kind), zap.String("handle", job.Handle))
			continue
		}
		go d.safeRun(ctx, fn, job)
	}
}

func (d *Dispatcher) safeRun(ctx context.Context, fn HandlerFunc, job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job handler panic",
				zap.String("handle", job.Handle), zap.Any("recover", r))
		}
	}()
	fn(ctx, job)
}
