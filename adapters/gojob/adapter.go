package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-ownership/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

const (
	JobIDOutboxDispatch = "ownership.outbox.dispatch"

	ParamBatchSize = "batch_size"
)

// RetryPolicy bounds queue retry behavior for dispatch jobs.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// Normalize clamps nack options to the policy for the given attempt.
func (p RetryPolicy) Normalize(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// NewOutboxDispatchMessage builds the execution message that schedules
// one outbox drain pass. A batchSize of zero defers to the dispatcher
// configuration.
func NewOutboxDispatchMessage(batchSize int) *job.ExecutionMessage {
	parameters := map[string]any{}
	if batchSize > 0 {
		parameters[ParamBatchSize] = batchSize
	}
	return &job.ExecutionMessage{
		JobID:      JobIDOutboxDispatch,
		Parameters: parameters,
	}
}

// BatchSizeFromMessage extracts the batch size parameter, zero when
// absent or malformed.
func BatchSizeFromMessage(msg *job.ExecutionMessage) int {
	if msg == nil || len(msg.Parameters) == 0 {
		return 0
	}
	switch typed := msg.Parameters[ParamBatchSize].(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	}
	return 0
}

// EnqueueOutboxDispatch schedules an outbox drain pass on the queue.
func EnqueueOutboxDispatch(ctx context.Context, enqueuer queue.Enqueuer, batchSize int) error {
	if enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is required")
	}
	return enqueuer.Enqueue(ctx, NewOutboxDispatchMessage(batchSize))
}

// OutboxDispatchRunner executes outbox drain jobs against the
// dispatcher. It is the worker-side binding for JobIDOutboxDispatch.
type OutboxDispatchRunner struct {
	dispatcher *core.OutboxDispatcher
	policy     RetryPolicy
}

func NewOutboxDispatchRunner(dispatcher *core.OutboxDispatcher, policy RetryPolicy) (*OutboxDispatchRunner, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("gojob: outbox dispatcher is required")
	}
	return &OutboxDispatchRunner{dispatcher: dispatcher, policy: policy}, nil
}

// Run performs one drain pass for the message and returns the
// dispatch stats. Failed events are re-armed by the outbox with their
// own backoff; the returned error reports that the pass was not clean.
func (r *OutboxDispatchRunner) Run(ctx context.Context, msg *job.ExecutionMessage) (core.DispatchStats, error) {
	if r == nil || r.dispatcher == nil {
		return core.DispatchStats{}, fmt.Errorf("gojob: outbox dispatch runner is not configured")
	}
	if msg != nil && strings.TrimSpace(msg.JobID) != JobIDOutboxDispatch {
		return core.DispatchStats{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	return r.dispatcher.DispatchPending(ctx, BatchSizeFromMessage(msg))
}

// HandleDelivery runs the drain pass for a queue delivery, acking on
// success and nacking within the retry policy on failure.
func (r *OutboxDispatchRunner) HandleDelivery(ctx context.Context, delivery queue.Delivery, attempt int) (core.DispatchStats, error) {
	if r == nil || r.dispatcher == nil {
		return core.DispatchStats{}, fmt.Errorf("gojob: outbox dispatch runner is not configured")
	}
	if delivery == nil {
		return core.DispatchStats{}, fmt.Errorf("gojob: delivery is required")
	}

	stats, err := r.Run(ctx, delivery.Message())
	if err != nil {
		nack := r.policy.Normalize(queue.NackOptions{
			Requeue: true,
			Reason:  err.Error(),
		}, attempt)
		if nackErr := delivery.Nack(ctx, nack); nackErr != nil {
			return stats, fmt.Errorf("gojob: nack after dispatch failure: %w", nackErr)
		}
		return stats, err
	}
	if ackErr := delivery.Ack(ctx); ackErr != nil {
		return stats, fmt.Errorf("gojob: ack after dispatch: %w", ackErr)
	}
	return stats, nil
}

// MetricsWorkerHook forwards worker lifecycle events into the
// ownership metrics recorder.
type MetricsWorkerHook struct {
	recorder core.MetricsRecorder
}

func NewMetricsWorkerHook(recorder core.MetricsRecorder) *MetricsWorkerHook {
	if recorder == nil {
		recorder = core.NopMetricsRecorder{}
	}
	return &MetricsWorkerHook{recorder: recorder}
}

func (h *MetricsWorkerHook) OnStart(ctx context.Context, event worker.Event) {
	h.count(ctx, "ownership_job_started_total", event)
}

func (h *MetricsWorkerHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.count(ctx, "ownership_job_succeeded_total", event)
	if h != nil && h.recorder != nil && event.Duration > 0 {
		h.recorder.ObserveHistogram(ctx, "ownership_job_duration_seconds", event.Duration.Seconds(), hookTags(event))
	}
}

func (h *MetricsWorkerHook) OnFailure(ctx context.Context, event worker.Event) {
	h.count(ctx, "ownership_job_failed_total", event)
}

func (h *MetricsWorkerHook) OnRetry(ctx context.Context, event worker.Event) {
	h.count(ctx, "ownership_job_retried_total", event)
}

func (h *MetricsWorkerHook) count(ctx context.Context, name string, event worker.Event) {
	if h == nil || h.recorder == nil {
		return
	}
	h.recorder.IncCounter(ctx, name, 1, hookTags(event))
}

func hookTags(event worker.Event) map[string]string {
	jobID := ""
	if event.Message != nil {
		jobID = event.Message.JobID
	} else if event.Delivery != nil && event.Delivery.Message() != nil {
		jobID = event.Delivery.Message().JobID
	}
	return map[string]string{"job_id": strings.TrimSpace(jobID)}
}

var _ worker.Hook = (*MetricsWorkerHook)(nil)
