package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	scheduleKey = "loneguard:jobs:schedule"
	payloadKey  = "loneguard:jobs:payload"

	popBatchSize = 100
)

// RedisQueue 基于 Redis 的延时队列：ZSET 按触发时间排序，HASH 存载荷
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, payload Payload, fireAt time.Time) (string, error) {
	handle := uuid.NewString()
	job := Job{Handle: handle, Payload: payload, FireAt: fireAt}
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.ZAdd(ctx, scheduleKey, redis.Z{Score: float64(fireAt.UnixMilli()), Member: handle})
	pipe.HSet(ctx, payloadKey, handle, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}
	return handle, nil
}

func (q *RedisQueue) Cancel(ctx context.Context, handle string) (bool, error) {
	pipe := q.client.TxPipeline()
	zrem := pipe.ZRem(ctx, scheduleKey, handle)
	pipe.HDel(ctx, payloadKey, handle)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("cancel job %s: %w", handle, err)
	}
	return zrem.Val() > 0, nil
}

func (q *RedisQueue) Lookup(ctx context.Context, handle string) (*Job, error) {
	data, err := q.client.HGet(ctx, payloadKey, handle).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup job %s: %w", handle, err)
	}
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", handle, err)
	}
	return &job, nil
}

func (q *RedisQueue) PopDue(ctx context.Context, now time.Time) ([]Job, error) {
	handles, err := q.client.ZRangeByScore(ctx, scheduleKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now.UnixMilli()),
		Count: popBatchSize,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("scan due jobs: %w", err)
	}

	var due []Job
	for _, handle := range handles {
		// ZREM 返回 1 的 worker 取得该任务的所有权，多实例下不会重复触发
		removed, err := q.client.ZRem(ctx, scheduleKey, handle).Result()
		if err != nil || removed == 0 {
			continue
		}
		data, err := q.client.HGet(ctx, payloadKey, handle).Result()
		q.client.HDel(ctx, payloadKey, handle)
		if err != nil {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			continue
		}
		due = append(due, job)
	}
	return due, nil
}
