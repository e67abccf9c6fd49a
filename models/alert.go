package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AlertType string

const (
	AlertTypeVitalSigns    AlertType = "vital_signs"
	AlertTypeMedication    AlertType = "medication"
	AlertTypeAppointment   AlertType = "appointment"
	AlertTypeEmergency     AlertType = "emergency"
	AlertTypeDevice        AlertType = "device"
	AlertTypeCheckIn       AlertType = "check_in"
	AlertTypeFallDetection AlertType = "fall_detection"
)

var validAlertTypes = map[AlertType]bool{
	AlertTypeVitalSigns:    true,
	AlertTypeMedication:    true,
	AlertTypeAppointment:   true,
	AlertTypeEmergency:     true,
	AlertTypeDevice:        true,
	AlertTypeCheckIn:       true,
	AlertTypeFallDetection: true,
}

func (t AlertType) IsValid() bool {
	return validAlertTypes[t]
}

type EscalationLevel string

const (
	EscalationCareCircle        EscalationLevel = "care_circle"
	EscalationEmergencyContact  EscalationLevel = "emergency_contact"
	EscalationEmergencyServices EscalationLevel = "emergency_services"
)

func (l EscalationLevel) IsValid() bool {
	switch l {
	case EscalationCareCircle, EscalationEmergencyContact, EscalationEmergencyServices:
		return true
	}
	return false
}

// Alert is the persisted record of one triggering event. Acknowledged and
// Escalated are one-way flags: once set they are never cleared.
type Alert struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SubjectID string             `json:"subjectId" bson:"subjectId"`

	Type     AlertType `json:"type" bson:"type"`
	Severity Severity  `json:"severity" bson:"severity"`
	Message  string    `json:"message" bson:"message"`

	Acknowledged   bool      `json:"acknowledged" bson:"acknowledged"`
	AcknowledgedBy string    `json:"acknowledgedBy,omitempty" bson:"acknowledgedBy,omitempty"`
	AcknowledgedAt time.Time `json:"acknowledgedAt,omitempty" bson:"acknowledgedAt,omitempty"`

	Escalated       bool            `json:"escalated" bson:"escalated"`
	EscalationLevel EscalationLevel `json:"escalationLevel,omitempty" bson:"escalationLevel,omitempty"`
	EscalatedAt     time.Time       `json:"escalatedAt,omitempty" bson:"escalatedAt,omitempty"`

	// Anomalies that triggered a vital_signs alert, or any extra payload
	// the triggering endpoint attached.
	Anomalies   []AnomalyResult        `json:"anomalies,omitempty" bson:"anomalies,omitempty"`
	RelatedData map[string]interface{} `json:"relatedData,omitempty" bson:"relatedData,omitempty"`

	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// EscalationEvent is the immutable fact published when an alert is
// escalated. The alert record stays the source of truth; this is a
// best-effort signal for asynchronous responders.
type EscalationEvent struct {
	AlertID         string          `json:"alertId"`
	SubjectID       string          `json:"subjectId"`
	EscalationLevel EscalationLevel `json:"escalationLevel"`
	Timestamp       time.Time       `json:"timestamp"`
}

type CreateAlertRequest struct {
	SubjectID   string                 `json:"subjectId" validate:"required"`
	Type        AlertType              `json:"type" validate:"required"`
	Severity    Severity               `json:"severity" validate:"required"`
	Message     string                 `json:"message" validate:"required"`
	Anomalies   []AnomalyResult        `json:"anomalies,omitempty"`
	RelatedData map[string]interface{} `json:"relatedData,omitempty"`
}

type EscalateAlertRequest struct {
	Level EscalationLevel `json:"level,omitempty"`
	// Manual marks a caregiver-invoked escalation as opposed to an
	// automatic emergency, which changes the default level policy.
	Manual bool `json:"manual,omitempty"`
}
