// Package events publishes job status transitions for downstream consumers
// (dashboards, notification workers) to react to. Delivery is best-effort:
// publishing never blocks or fails an ingestion job, and a disconnected or
// misconfigured bus is simply logged and otherwise ignored.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// JobStatusEvent is the payload published on every job status transition.
type JobStatusEvent struct {
	JobID     string    `json:"job_id"`
	TenantID  string    `json:"tenant_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits job status transitions onto a NATS subject namespace. It
// holds no delivery guarantee: messages are fire-and-forget core NATS
// publishes, not JetStream, since losing a status notification has no
// correctness impact on the job itself (the job's row in processing_jobs
// remains the source of truth).
type Publisher struct {
	nc        *nats.Conn
	namespace string
	logger    *slog.Logger
}

// NewPublisher connects to natsURL and returns a Publisher. If natsURL is
// empty, NewPublisher returns a Publisher with no connection: Publish calls
// become silent no-ops, so the engine can run with job-event fan-out
// disabled entirely.
func NewPublisher(natsURL, namespace string, logger *slog.Logger) *Publisher {
	if natsURL == "" {
		return &Publisher{namespace: namespace, logger: logger}
	}

	nc, err := nats.Connect(natsURL,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("events: nats disconnected", "error", err)
		}),
	)
	if err != nil {
		logger.Warn("events: failed to connect to nats, job events will not be published", "error", err)
		return &Publisher{namespace: namespace, logger: logger}
	}

	return &Publisher{nc: nc, namespace: namespace, logger: logger}
}

// Publish emits a job status transition. Any failure (no connection,
// marshal error, publish error) is logged and swallowed.
func (p *Publisher) Publish(ctx context.Context, tenantID, jobID, status string) {
	if p.nc == nil {
		return
	}

	payload, err := json.Marshal(JobStatusEvent{
		JobID:     jobID,
		TenantID:  tenantID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		p.logger.Warn("events: failed to encode job status event", "job_id", jobID, "error", err)
		return
	}

	subject := fmt.Sprintf("%s.job.%s", p.namespace, status)
	if err := p.nc.Publish(subject, payload); err != nil {
		p.logger.Warn("events: failed to publish job status event", "job_id", jobID, "subject", subject, "error", err)
	}
}

// Close releases the underlying NATS connection, if any.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
