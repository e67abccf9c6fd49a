package services

import (
	"context"
	"testing"
	"time"

	"vitalwatch/events"
	"vitalwatch/models"
	"vitalwatch/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAlertService(store *fakeAlertStore, bus *fakeBus, broadcaster *fakeBroadcaster) *AlertService {
	profiles := newFakeProfileStore()
	delivery := newTestDelivery(&fakeGateway{}, &fakeGateway{}, &fakeGateway{}, &fakeAttemptStore{}, nil)
	circle := NewCircleService(profiles, NewPreferenceService(profiles), delivery)
	return NewAlertService(store, bus, broadcaster, circle)
}

func TestShouldAlert(t *testing.T) {
	assert.False(t, ShouldAlert(nil))
	assert.False(t, ShouldAlert([]models.AnomalyResult{
		{Severity: models.SeverityLow},
		{Severity: models.SeverityLow},
	}))
	assert.True(t, ShouldAlert([]models.AnomalyResult{
		{Severity: models.SeverityLow},
		{Severity: models.SeverityMedium},
	}))
	assert.True(t, ShouldAlert([]models.AnomalyResult{
		{Severity: models.SeverityCritical},
	}))
}

func TestHighestSeverity(t *testing.T) {
	assert.Equal(t, models.SeverityLow, HighestSeverity(nil))
	assert.Equal(t, models.SeverityCritical, HighestSeverity([]models.AnomalyResult{
		{Severity: models.SeverityMedium},
		{Severity: models.SeverityCritical},
		{Severity: models.SeverityHigh},
	}))
}

func TestCreateAlertPersistsPublishesAndBroadcasts(t *testing.T) {
	store := newFakeAlertStore()
	bus := &fakeBus{}
	broadcaster := &fakeBroadcaster{}
	svc := newTestAlertService(store, bus, broadcaster)

	alert, err := svc.CreateAlert(context.Background(), models.CreateAlertRequest{
		SubjectID: "subject-1",
		Type:      models.AlertTypeVitalSigns,
		Severity:  models.SeverityHigh,
		Message:   "Heart rate out of range",
	})
	require.NoError(t, err)
	require.NotNil(t, alert)

	assert.False(t, alert.Acknowledged)
	assert.False(t, alert.Escalated)
	assert.False(t, alert.ID.IsZero())

	stored, err := store.Get(context.Background(), alert.ID.Hex(), alert.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, "subject-1", stored.SubjectID)

	assert.Contains(t, bus.published(), events.TopicAlertCreated)
	assert.Len(t, broadcaster.alerts, 1)
}

func TestCreateAlertRejectsInvalidType(t *testing.T) {
	svc := newTestAlertService(newFakeAlertStore(), &fakeBus{}, &fakeBroadcaster{})

	_, err := svc.CreateAlert(context.Background(), models.CreateAlertRequest{
		SubjectID: "subject-1",
		Type:      "earthquake",
		Severity:  models.SeverityHigh,
		Message:   "nope",
	})
	require.Error(t, err)
	assert.True(t, utils.IsValidation(err))
}

func TestCreateAlertRejectsInvalidSeverity(t *testing.T) {
	svc := newTestAlertService(newFakeAlertStore(), &fakeBus{}, &fakeBroadcaster{})

	_, err := svc.CreateAlert(context.Background(), models.CreateAlertRequest{
		SubjectID: "subject-1",
		Type:      models.AlertTypeVitalSigns,
		Severity:  "catastrophic",
		Message:   "nope",
	})
	require.Error(t, err)
	assert.True(t, utils.IsValidation(err))
}

func TestAcknowledgeAlertSetsFlagAndPublishes(t *testing.T) {
	store := newFakeAlertStore()
	bus := &fakeBus{}
	svc := newTestAlertService(store, bus, &fakeBroadcaster{})

	alert, err := svc.CreateAlert(context.Background(), models.CreateAlertRequest{
		SubjectID: "subject-1",
		Type:      models.AlertTypeVitalSigns,
		Severity:  models.SeverityHigh,
		Message:   "Heart rate out of range",
	})
	require.NoError(t, err)

	err = svc.AcknowledgeAlert(context.Background(), alert.ID.Hex(), alert.Timestamp, "caregiver-1")
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), alert.ID.Hex(), alert.Timestamp)
	require.NoError(t, err)
	assert.True(t, stored.Acknowledged)
	assert.Equal(t, "caregiver-1", stored.AcknowledgedBy)

	assert.Contains(t, bus.published(), events.TopicAlertAcknowledged)
}

func TestAcknowledgeAlertUnknownIDReturnsNotFound(t *testing.T) {
	svc := newTestAlertService(newFakeAlertStore(), &fakeBus{}, &fakeBroadcaster{})

	err := svc.AcknowledgeAlert(context.Background(), "66f0c2a1b3d4e5f60718293a", time.Now(), "caregiver-1")
	require.Error(t, err)
	assert.True(t, utils.IsNotFound(err))
}

func TestEscalateAlertDefaultLevels(t *testing.T) {
	tests := []struct {
		name     string
		severity models.Severity
		manual   bool
		expected models.EscalationLevel
	}{
		{"manual escalation starts with the care circle", models.SeverityCritical, true, models.EscalationCareCircle},
		{"critical escalates to emergency services", models.SeverityCritical, false, models.EscalationEmergencyServices},
		{"high escalates to the emergency contact", models.SeverityHigh, false, models.EscalationEmergencyContact},
		{"medium escalates to the emergency contact", models.SeverityMedium, false, models.EscalationEmergencyContact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeAlertStore()
			bus := &fakeBus{}
			broadcaster := &fakeBroadcaster{}
			svc := newTestAlertService(store, bus, broadcaster)

			alert, err := svc.CreateAlert(context.Background(), models.CreateAlertRequest{
				SubjectID: "subject-1",
				Type:      models.AlertTypeVitalSigns,
				Severity:  tt.severity,
				Message:   "out of range",
			})
			require.NoError(t, err)

			escalated, err := svc.EscalateAlert(context.Background(), alert.ID.Hex(), alert.Timestamp,
				models.EscalateAlertRequest{Manual: tt.manual})
			require.NoError(t, err)

			assert.True(t, escalated.Escalated)
			assert.Equal(t, tt.expected, escalated.EscalationLevel)
			assert.Contains(t, bus.published(), events.TopicAlertEscalated)
			assert.Len(t, broadcaster.escalations, 1)
		})
	}
}

func TestEscalateAlertExplicitLevelWins(t *testing.T) {
	store := newFakeAlertStore()
	svc := newTestAlertService(store, &fakeBus{}, &fakeBroadcaster{})

	alert, err := svc.CreateAlert(context.Background(), models.CreateAlertRequest{
		SubjectID: "subject-1",
		Type:      models.AlertTypeVitalSigns,
		Severity:  models.SeverityCritical,
		Message:   "out of range",
	})
	require.NoError(t, err)

	escalated, err := svc.EscalateAlert(context.Background(), alert.ID.Hex(), alert.Timestamp,
		models.EscalateAlertRequest{Level: models.EscalationCareCircle})
	require.NoError(t, err)
	assert.Equal(t, models.EscalationCareCircle, escalated.EscalationLevel)
}

func TestEscalateAlertRejectsInvalidLevel(t *testing.T) {
	store := newFakeAlertStore()
	svc := newTestAlertService(store, &fakeBus{}, &fakeBroadcaster{})

	alert, err := svc.CreateAlert(context.Background(), models.CreateAlertRequest{
		SubjectID: "subject-1",
		Type:      models.AlertTypeVitalSigns,
		Severity:  models.SeverityHigh,
		Message:   "out of range",
	})
	require.NoError(t, err)

	_, err = svc.EscalateAlert(context.Background(), alert.ID.Hex(), alert.Timestamp,
		models.EscalateAlertRequest{Level: "pager_duty"})
	require.Error(t, err)
	assert.True(t, utils.IsValidation(err))
}

func TestEscalateAlertOverwritesPreviousLevel(t *testing.T) {
	store := newFakeAlertStore()
	svc := newTestAlertService(store, &fakeBus{}, &fakeBroadcaster{})

	alert, err := svc.CreateAlert(context.Background(), models.CreateAlertRequest{
		SubjectID: "subject-1",
		Type:      models.AlertTypeVitalSigns,
		Severity:  models.SeverityCritical,
		Message:   "out of range",
	})
	require.NoError(t, err)

	first, err := svc.EscalateAlert(context.Background(), alert.ID.Hex(), alert.Timestamp,
		models.EscalateAlertRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.EscalationEmergencyServices, first.EscalationLevel)

	// Re-escalation is an idempotent overwrite, not an error.
	second, err := svc.EscalateAlert(context.Background(), alert.ID.Hex(), alert.Timestamp,
		models.EscalateAlertRequest{Level: models.EscalationCareCircle})
	require.NoError(t, err)
	assert.True(t, second.Escalated)
	assert.Equal(t, models.EscalationCareCircle, second.EscalationLevel)
}
