package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fngate/fngate/pkg/common"
	"github.com/fngate/fngate/pkg/types"
)

const (
	// Redis key layout
	queuePendingKey    = "fngate:queue:%s"            // per-queue pending list
	queueInFlightKey   = "fngate:queue:inflight:%s"   // invocations being processed
	invocationStateKey = "fngate:invocation:state:%s" // state by invocation ID
	invocationStateTTL = 24 * time.Hour
	defaultQueueName   = "default"
	defaultPopTimeout  = 5 * time.Second
)

// Producer hands invocation messages to the queue. Once Enqueue returns nil
// the gateway has no further responsibility for the execution outcome.
type Producer interface {
	Enqueue(ctx context.Context, msg *types.InvocationMessage) error
	Len(ctx context.Context) (int64, error)
	InFlightCount(ctx context.Context) (int64, error)
}

// RedisQueue implements the producer contract and the consumer side used by
// external invocation workers
type RedisQueue struct {
	rdb       *common.RedisClient
	queueName string
}

// NewRedisQueue creates a Redis-backed invocation queue
func NewRedisQueue(rdb *common.RedisClient, queueName string) *RedisQueue {
	if queueName == "" {
		queueName = defaultQueueName
	}
	return &RedisQueue{
		rdb:       rdb,
		queueName: queueName,
	}
}

// Enqueue serializes the invocation and pushes it onto the queue, recording
// a pending state entry in the same pipeline
func (q *RedisQueue) Enqueue(ctx context.Context, msg *types.InvocationMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return &types.ErrEnqueue{Queue: q.queueName, Err: fmt.Errorf("failed to marshal invocation: %w", err)}
	}

	state := &types.InvocationState{
		ID:        msg.ID,
		Status:    types.InvocationStatusPending,
		CreatedAt: time.Now(),
	}
	stateData, err := json.Marshal(state)
	if err != nil {
		return &types.ErrEnqueue{Queue: q.queueName, Err: fmt.Errorf("failed to marshal state: %w", err)}
	}

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, fmt.Sprintf(invocationStateKey, msg.ID), stateData, invocationStateTTL)
	pipe.LPush(ctx, fmt.Sprintf(queuePendingKey, q.queueName), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return &types.ErrEnqueue{Queue: q.queueName, Err: err}
	}

	return nil
}

// Pop blocks until an invocation is available and claims it for workerID.
// Returns nil with no error when the blocking window elapses empty.
func (q *RedisQueue) Pop(ctx context.Context, workerID string) (*types.InvocationMessage, error) {
	result, err := q.rdb.BRPop(ctx, defaultPopTimeout, fmt.Sprintf(queuePendingKey, q.queueName)).Result()
	if err != nil {
		if err.Error() == "redis: nil" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop invocation: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var msg types.InvocationMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invocation: %w", err)
	}

	now := time.Now()
	state := &types.InvocationState{
		ID:        msg.ID,
		Status:    types.InvocationStatusRunning,
		WorkerID:  workerID,
		StartedAt: now,
	}
	stateData, _ := json.Marshal(state)

	pipe := q.rdb.Pipeline()
	pipe.SAdd(ctx, fmt.Sprintf(queueInFlightKey, q.queueName), msg.ID)
	pipe.Set(ctx, fmt.Sprintf(invocationStateKey, msg.ID), stateData, invocationStateTTL)
	pipe.Exec(ctx)
	// Invocation was claimed; return it even if state tracking failed

	return &msg, nil
}

// Complete marks an invocation as finished
func (q *RedisQueue) Complete(ctx context.Context, invocationID string, invErr error) error {
	state := &types.InvocationState{
		ID:         invocationID,
		Status:     types.InvocationStatusComplete,
		FinishedAt: time.Now(),
	}
	if invErr != nil {
		state.Status = types.InvocationStatusFailed
		state.Error = invErr.Error()
	}

	stateData, _ := json.Marshal(state)

	pipe := q.rdb.Pipeline()
	pipe.SRem(ctx, fmt.Sprintf(queueInFlightKey, q.queueName), invocationID)
	pipe.Set(ctx, fmt.Sprintf(invocationStateKey, invocationID), stateData, invocationStateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to complete invocation: %w", err)
	}

	return nil
}

// GetState returns the current state of an invocation
func (q *RedisQueue) GetState(ctx context.Context, invocationID string) (*types.InvocationState, error) {
	data, err := q.rdb.Get(ctx, fmt.Sprintf(invocationStateKey, invocationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("invocation not found: %w", err)
	}

	var state types.InvocationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &state, nil
}

// Len returns the number of pending invocations
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, fmt.Sprintf(queuePendingKey, q.queueName)).Result()
}

// InFlightCount returns the number of invocations currently being processed
func (q *RedisQueue) InFlightCount(ctx context.Context) (int64, error) {
	return q.rdb.SCard(ctx, fmt.Sprintf(queueInFlightKey, q.queueName)).Result()
}
