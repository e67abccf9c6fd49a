package services

import (
	"context"
	"fmt"
	"time"

	"vitalwatch/events"
	"vitalwatch/interfaces"
	"vitalwatch/models"
	"vitalwatch/utils"

	"github.com/sirupsen/logrus"
)

// ShouldAlert reports whether anomalies warrant creating an alert: any
// anomaly of medium severity or above. Low-severity-only sets never
// alert.
func ShouldAlert(anomalies []models.AnomalyResult) bool {
	for _, anomaly := range anomalies {
		if anomaly.Severity.Rank() >= models.SeverityMedium.Rank() {
			return true
		}
	}
	return false
}

// HighestSeverity returns the maximum severity present, or low for an
// empty set.
func HighestSeverity(anomalies []models.AnomalyResult) models.Severity {
	highest := models.SeverityLow
	for _, anomaly := range anomalies {
		if anomaly.Severity.Rank() > highest.Rank() {
			highest = anomaly.Severity
		}
	}
	return highest
}

type AlertService struct {
	alertStore  interfaces.AlertStore
	bus         interfaces.EventBus
	broadcaster interfaces.AlertBroadcaster
	circleSvc   *CircleService
	validator   *utils.ValidationService
}

func NewAlertService(
	alertStore interfaces.AlertStore,
	bus interfaces.EventBus,
	broadcaster interfaces.AlertBroadcaster,
	circleSvc *CircleService,
) *AlertService {
	return &AlertService{
		alertStore:  alertStore,
		bus:         bus,
		broadcaster: broadcaster,
		circleSvc:   circleSvc,
		validator:   utils.NewValidationService(),
	}
}

// CreateAlert validates and persists a new alert in its initial state
// (unacknowledged, unescalated), then notifies the care circle and
// publishes the creation fact.
func (as *AlertService) CreateAlert(ctx context.Context, req models.CreateAlertRequest) (*models.Alert, error) {
	if fieldErrors := as.validator.ValidateStruct(req); len(fieldErrors) > 0 {
		return nil, utils.NewValidationErrorWithDetails("invalid alert request", fieldErrors[0].Message)
	}
	if !req.Type.IsValid() {
		return nil, utils.NewValidationError(fmt.Sprintf("invalid alert type %q", req.Type))
	}
	if !req.Severity.IsValid() {
		return nil, utils.NewValidationError(fmt.Sprintf("invalid severity %q", req.Severity))
	}

	alert := &models.Alert{
		SubjectID:    req.SubjectID,
		Type:         req.Type,
		Severity:     req.Severity,
		Message:      req.Message,
		Acknowledged: false,
		Escalated:    false,
		Anomalies:    req.Anomalies,
		RelatedData:  req.RelatedData,
		Timestamp:    time.Now(),
	}

	id, err := as.alertStore.Create(ctx, alert)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"alertId":  id,
		"subject":  alert.SubjectID,
		"type":     alert.Type,
		"severity": alert.Severity,
	}).Info("Alert created")

	as.bus.Publish(ctx, events.TopicAlertCreated, alert)
	if as.broadcaster != nil {
		as.broadcaster.BroadcastAlert(alert)
	}

	// Care-circle delivery runs in the background; the alert record is
	// already durable.
	go as.circleSvc.NotifyCircleOfAlert(context.Background(), alert)

	return alert, nil
}

// AcknowledgeAlert sets the acknowledged flag. The flag is a one-way
// marker: acknowledging an already-acknowledged alert is a no-op write
// of the same terminal state.
func (as *AlertService) AcknowledgeAlert(ctx context.Context, id string, timestamp time.Time, actorID string) error {
	alert, err := as.alertStore.Get(ctx, id, timestamp)
	if err != nil {
		return err
	}

	if err := as.alertStore.Acknowledge(ctx, id, timestamp, actorID); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"alertId": id, "actor": actorID}).Info("Alert acknowledged")

	as.bus.Publish(ctx, events.TopicAlertAcknowledged, map[string]interface{}{
		"alertId":   id,
		"subjectId": alert.SubjectID,
		"actorId":   actorID,
		"timestamp": time.Now(),
	})

	// Let the rest of the circle know someone is handling it.
	go as.circleSvc.BroadcastAcknowledgment(context.Background(), alert, actorID)

	return nil
}

// EscalateAlert routes an alert to a responder tier. Critical
// emergencies go to emergency services; other severities go to the named
// emergency contact; a manual escalation starts with the care circle.
// Re-escalating overwrites the level but warns, since relabeling an
// already-escalated alert is usually operator error.
func (as *AlertService) EscalateAlert(ctx context.Context, id string, timestamp time.Time, req models.EscalateAlertRequest) (*models.Alert, error) {
	alert, err := as.alertStore.Get(ctx, id, timestamp)
	if err != nil {
		return nil, err
	}

	level := req.Level
	if level == "" {
		level = selectEscalationLevel(alert, req.Manual)
	}
	if !level.IsValid() {
		return nil, utils.NewValidationError(fmt.Sprintf("invalid escalation level %q", req.Level))
	}

	if alert.Escalated {
		logrus.WithFields(logrus.Fields{
			"alertId":   id,
			"current":   alert.EscalationLevel,
			"requested": level,
		}).Warn("Alert already escalated, overwriting escalation level")
	}

	if err := as.alertStore.Escalate(ctx, id, timestamp, level); err != nil {
		return nil, err
	}

	event := models.EscalationEvent{
		AlertID:         id,
		SubjectID:       alert.SubjectID,
		EscalationLevel: level,
		Timestamp:       time.Now(),
	}

	logrus.WithFields(logrus.Fields{"alertId": id, "level": level}).Info("Alert escalated")

	as.bus.Publish(ctx, events.TopicAlertEscalated, event)
	if as.broadcaster != nil {
		as.broadcaster.BroadcastEscalation(event)
	}

	return as.alertStore.Get(ctx, id, timestamp)
}

func (as *AlertService) GetAlert(ctx context.Context, id string, timestamp time.Time) (*models.Alert, error) {
	return as.alertStore.Get(ctx, id, timestamp)
}

func (as *AlertService) ListAlerts(ctx context.Context, subjectID string, limit int) ([]models.Alert, error) {
	return as.alertStore.ListBySubject(ctx, subjectID, limit)
}

func (as *AlertService) ListAlertsByStatus(ctx context.Context, subjectID string, acknowledged bool, limit int) ([]models.Alert, error) {
	return as.alertStore.ListByStatus(ctx, subjectID, acknowledged, limit)
}

func selectEscalationLevel(alert *models.Alert, manual bool) models.EscalationLevel {
	if manual {
		return models.EscalationCareCircle
	}
	if alert.Severity == models.SeverityCritical {
		return models.EscalationEmergencyServices
	}
	return models.EscalationEmergencyContact
}
