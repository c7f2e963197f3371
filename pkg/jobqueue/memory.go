package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue 进程内实现，开发与测试用
type MemoryQueue struct {
	mu   sync.Mutex
	jobs map[string]Job
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{jobs: make(map[string]Job)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, payload Payload, fireAt time.Time) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	handle := uuid.NewString()
	q.jobs[handle] = Job{Handle: handle, Payload: payload, FireAt: fireAt}
	return handle, nil
}

func (q *MemoryQueue) Cancel(ctx context.Context, handle string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.jobs[handle]; !ok {
		return false, nil
	}
	delete(q.jobs, handle)
	return true, nil
}

func (q *MemoryQueue) Lookup(ctx context.Context, handle string) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[handle]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (q *MemoryQueue) PopDue(ctx context.Context, now time.Time) ([]Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var due []Job
	for handle, job := range q.jobs {
		if !job.FireAt.After(now) {
			due = append(due, job)
			delete(q.jobs, handle)
		}
	}
	return due, nil
}

// Len 当前待触发任务数
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
