package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestEnqueueRejectsUnknownAction(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	q, err := NewRedisJobQueue(RedisQueueConfig{
		Addr:   redisSrv.Addr(),
		Stream: "test:reindex",
	})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	if _, err := q.Enqueue(context.Background(), "doc-1", "reinvent"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
	if _, err := q.Enqueue(context.Background(), "", ActionIndex); err == nil {
		t.Fatalf("expected error for empty document id")
	}
}

func TestEnqueueWritesStatusHash(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	q, err := NewRedisJobQueue(RedisQueueConfig{
		Addr:   redisSrv.Addr(),
		Stream: "test:reindex",
	})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	ctx := context.Background()

	job, err := q.Enqueue(ctx, "doc-1", ActionIndex)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	got, ok, err := q.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if !ok {
		t.Fatalf("job status not found")
	}
	if got.DocumentID != "doc-1" || got.Action != ActionIndex || got.Status != StatusQueued {
		t.Fatalf("unexpected job status: %+v", got)
	}
	if got.Attempts != 0 {
		t.Fatalf("expected zero attempts, got %d", got.Attempts)
	}
}

func TestRequeueAndAckSuccess(t *testing.T) {
	q, ctx, msgID, jobID, docID := newPendingQueueMessage(t)

	if err := q.requeueAndAck(ctx, msgID, jobID, docID, ActionIndex); err != nil {
		t.Fatalf("requeue and ack: %v", err)
	}

	pending, err := q.client.XPending(ctx, q.stream, q.group).Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 0 {
		t.Fatalf("expected no pending messages, got %d", pending.Count)
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: "consumer-2",
		Streams:  []string{q.stream, ">"},
		Count:    1,
		Block:    0,
	}).Result()
	if err != nil {
		t.Fatalf("read requeued message: %v", err)
	}
	if len(streams) != 1 || len(streams[0].Messages) != 1 {
		t.Fatalf("expected one requeued message, got %+v", streams)
	}
	got := streams[0].Messages[0]
	if got.Values["job_id"] != jobID || got.Values["doc_id"] != docID || got.Values["action"] != ActionIndex {
		t.Fatalf("unexpected requeued payload: %+v", got.Values)
	}
}

func TestRequeueAndAckFailureKeepsPendingMessage(t *testing.T) {
	q, ctx, msgID, jobID, docID := newPendingQueueMessage(t)

	canceledCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.requeueAndAck(canceledCtx, msgID, jobID, docID, ActionIndex); err == nil {
		t.Fatalf("expected requeueAndAck to fail on canceled context")
	}

	pending, err := q.client.XPending(ctx, q.stream, q.group).Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 1 {
		t.Fatalf("expected original message to remain pending, got %d", pending.Count)
	}

	streamLen, err := q.client.XLen(ctx, q.stream).Result()
	if err != nil {
		t.Fatalf("xlen: %v", err)
	}
	if streamLen != 1 {
		t.Fatalf("expected no new message in stream on failure, got len=%d", streamLen)
	}
}

func TestHandleMessageMarksDoneOnSuccess(t *testing.T) {
	q, ctx, msgID, jobID, _ := newPendingQueueMessage(t)

	msg := redis.XMessage{ID: msgID, Values: map[string]any{
		"job_id": jobID,
		"doc_id": "doc-1",
		"action": ActionIndex,
	}}
	q.handleMessage(ctx, msg, func(context.Context, JobStatus) error { return nil })

	job, ok, err := q.GetJob(ctx, jobID)
	if err != nil || !ok {
		t.Fatalf("get job: ok=%v err=%v", ok, err)
	}
	if job.Status != StatusDone {
		t.Fatalf("expected done, got %s", job.Status)
	}
	if job.Attempts != 1 {
		t.Fatalf("expected one attempt, got %d", job.Attempts)
	}
}

func newPendingQueueMessage(t *testing.T) (*RedisJobQueue, context.Context, string, string, string) {
	t.Helper()

	redisSrv := miniredis.RunT(t)
	q, err := NewRedisJobQueue(RedisQueueConfig{
		Addr:       redisSrv.Addr(),
		Stream:     "test:reindex",
		Group:      "test-group",
		Consumer:   "consumer-1",
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}

	ctx := context.Background()
	q.ensureGroup(ctx)

	job, err := q.Enqueue(ctx, "doc-1", ActionIndex)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: "consumer-1",
		Streams:  []string{q.stream, ">"},
		Count:    1,
		Block:    0,
	}).Result()
	if err != nil {
		t.Fatalf("readgroup: %v", err)
	}
	if len(streams) != 1 || len(streams[0].Messages) != 1 {
		t.Fatalf("expected one pending message, got %+v", streams)
	}

	msg := streams[0].Messages[0]
	return q, ctx, msg.ID, job.ID, job.DocumentID
}
