package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// AllChannels is every channel the platform supports, in dispatch order.
func AllChannels() []Channel {
	return []Channel{ChannelPush, ChannelSMS, ChannelEmail}
}

const (
	AttemptStatusSent      = "sent"
	AttemptStatusDelivered = "delivered"
	AttemptStatusFailed    = "failed"
	AttemptStatusRetrying  = "retrying"
)

// QuietHours is a local-clock window during which non-critical alerts are
// suppressed. Start > End means the window wraps past midnight.
type QuietHours struct {
	Start string `json:"start" bson:"start"` // HH:MM
	End   string `json:"end" bson:"end"`     // HH:MM
}

// AlertTypePreference controls one alert type for a recipient. Severities
// empty means all severities are allowed.
type AlertTypePreference struct {
	Enabled    bool       `json:"enabled" bson:"enabled"`
	Severities []Severity `json:"severities,omitempty" bson:"severities,omitempty"`
}

// RecipientPreferences is owned by the recipient and read-only to the
// pipeline. A missing record means "send everything on all channels".
type RecipientPreferences struct {
	ID          primitive.ObjectID                  `json:"id" bson:"_id,omitempty"`
	RecipientID string                              `json:"recipientId" bson:"recipientId"`
	Channels    []Channel                           `json:"channels,omitempty" bson:"channels,omitempty"`
	AlertTypes  map[AlertType]AlertTypePreference   `json:"alertTypes,omitempty" bson:"alertTypes,omitempty"`
	QuietHours  *QuietHours                         `json:"quietHours,omitempty" bson:"quietHours,omitempty"`
	UpdatedAt   time.Time                           `json:"updatedAt" bson:"updatedAt"`
}

// NotificationAttempt records one send on one channel. Retries create new
// records linked by AlertID+RecipientID+Channel rather than mutating the
// superseded one.
type NotificationAttempt struct {
	ID          string  `json:"id" bson:"_id"`
	AlertID     string  `json:"alertId" bson:"alertId"`
	RecipientID string  `json:"recipientId" bson:"recipientId"`
	Channel     Channel `json:"channel" bson:"channel"`
	Status      string  `json:"status" bson:"status"`

	RetryCount    int           `json:"retryCount" bson:"retryCount"`
	SentAt        time.Time     `json:"sentAt" bson:"sentAt"`
	DeliveredAt   *time.Time    `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	FailureReason string        `json:"failureReason,omitempty" bson:"failureReason,omitempty"`
	Latency       time.Duration `json:"latency" bson:"latency"`
}

type UpdatePreferencesRequest struct {
	Channels   []Channel                         `json:"channels,omitempty" validate:"omitempty,dive,oneof=push sms email"`
	AlertTypes map[AlertType]AlertTypePreference `json:"alertTypes,omitempty"`
	QuietHours *QuietHours                       `json:"quietHours,omitempty"`
}
