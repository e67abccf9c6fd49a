package interfaces

import (
	"context"
	"time"

	"vitalwatch/models"
)

// Collaborators the pipeline consumes. Repositories and gateways
// implement these; tests substitute fakes.

type AlertStore interface {
	Create(ctx context.Context, alert *models.Alert) (string, error)
	Get(ctx context.Context, id string, timestamp time.Time) (*models.Alert, error)
	Acknowledge(ctx context.Context, id string, timestamp time.Time, actorID string) error
	Escalate(ctx context.Context, id string, timestamp time.Time, level models.EscalationLevel) error
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]models.Alert, error)
	ListByStatus(ctx context.Context, subjectID string, acknowledged bool, limit int) ([]models.Alert, error)
}

type AttemptStore interface {
	Record(ctx context.Context, attempt *models.NotificationAttempt) error
}

type ReadingStore interface {
	Create(ctx context.Context, reading *models.VitalReading) error
}

type ProfileStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetBaseline(ctx context.Context, subjectID string) (*models.Baseline, error)
	GetPreferences(ctx context.Context, recipientID string) (*models.RecipientPreferences, error)
	UpdatePreferences(ctx context.Context, recipientID string, prefs *models.RecipientPreferences) error
	GetCircleMembers(ctx context.Context, subjectID string) ([]models.User, error)
}

// GatewayResult reports one transport call. Latency is the transport's
// own acknowledgment time when it exposes one.
type GatewayResult struct {
	Success   bool
	MessageID string
	Latency   time.Duration
	Err       error
}

type PushGateway interface {
	SendPush(ctx context.Context, deviceToken, title, body, correlationID string) GatewayResult
}

type SMSGateway interface {
	SendSMS(ctx context.Context, phone, message, correlationID string) GatewayResult
}

type EmailGateway interface {
	SendEmail(ctx context.Context, email, subject, body, correlationID string) GatewayResult
}

// EventBus publishes immutable facts. Fire and forget: failures are
// logged by implementations, never returned to the pipeline.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload interface{})
}

// MetricsSink records delivery observations. Best-effort: emission
// failures must never affect the notification call.
type MetricsSink interface {
	Record(ctx context.Context, name string, dims map[string]string, value float64)
}

// AlertBroadcaster pushes alert facts to connected dashboard clients.
type AlertBroadcaster interface {
	BroadcastAlert(alert *models.Alert)
	BroadcastEscalation(event models.EscalationEvent)
}
