package event

import (
	"context"
	"encoding/json"
	"log/slog"

	"loan-engine/internal/ingestion"

	amqp "github.com/rabbitmq/amqp091-go"
)

type jobRunner interface {
	Run(ctx context.Context, req ingestion.JobRequest) (ingestion.JobResult, error)
}

// JobHandler runs delivered ingestion jobs. Deliveries are always settled without requeue:
// a failed job is recorded in the status store and acked.
type JobHandler struct {
	runner jobRunner
	logger *slog.Logger
}

func NewJobHandler(runner jobRunner, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		runner: runner,
		logger: logger.With("component", "JobHandler"),
	}
}

func (h *JobHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))

	kind, err := ingestion.KindFromRoutingKey(d.RoutingKey)
	if err != nil {
		logCtx.WarnContext(ctx, "Received message with unknown routing key. Discarding.")
		_ = d.Reject(false)
		return
	}

	var req ingestion.JobRequest
	if err := json.Unmarshal(d.Body, &req); err != nil {
		logCtx.ErrorContext(ctx, "Failed to unmarshal job request", "error", err, "body", string(d.Body))
		_ = d.Reject(false)
		return
	}
	if req.JobID == "" || req.Kind != kind {
		logCtx.ErrorContext(ctx, "Job request does not match its routing key", "jobID", req.JobID, "kind", string(req.Kind))
		_ = d.Reject(false)
		return
	}

	logCtx = logCtx.With(slog.String("jobID", req.JobID))
	result, err := h.runner.Run(ctx, req)
	if err != nil {
		logCtx.ErrorContext(ctx, "Job finished but its status could not be stored", "error", err, "state", string(result.State))
	}

	if err := d.Ack(false); err != nil {
		logCtx.ErrorContext(ctx, "Failed to acknowledge message", "error", err)
		return
	}
	logCtx.InfoContext(ctx, "Processed and acknowledged job", "state", string(result.State), "summary", result.Summary)
}
