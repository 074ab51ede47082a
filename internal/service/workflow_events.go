package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Workflow event types published on the bus.
const (
	EventRequestSubmitted = "submitted"
	EventRequestApproved  = "approved"
	EventRequestRejected  = "rejected"
)

// WorkflowEvent describes one modification-request transition for downstream
// consumers.
type WorkflowEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	RequestID    uint      `json:"request_id"`
	InspectionID uint      `json:"inspection_id"`
	ActorID      uint      `json:"actor_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// WorkflowEventPublisher fans workflow transitions out to interested
// consumers. Publishing is best effort: it never fails the mutation that
// triggered it.
type WorkflowEventPublisher interface {
	Publish(ctx context.Context, event WorkflowEvent)
}

type natsWorkflowPublisher struct {
	conn        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
}

// NewWorkflowEventPublisher constructs a NATS-backed publisher. A nil
// connection yields a publisher that only logs.
func NewWorkflowEventPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) WorkflowEventPublisher {
	if subjectBase == "" {
		subjectBase = "patrimoine.workflow"
	}

	return &natsWorkflowPublisher{
		conn:        conn,
		subjectBase: subjectBase,
		logger:      logger.With().Str("component", "workflow_events").Logger(),
	}
}

func (p *natsWorkflowPublisher) Publish(_ context.Context, event WorkflowEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if p.conn == nil {
		p.logger.Debug().Str("type", event.Type).Uint("request_id", event.RequestID).Msg("workflow event bus disabled, skipping publish")
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode workflow event")
		return
	}

	subject := p.subjectBase + "." + event.Type
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish workflow event")
		return
	}

	p.logger.Debug().Str("subject", subject).Uint("request_id", event.RequestID).Msg("workflow event published")
}
