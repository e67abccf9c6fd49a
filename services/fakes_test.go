package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vitalwatch/interfaces"
	"vitalwatch/models"
	"vitalwatch/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes for the pipeline's collaborators.

type fakeProfileStore struct {
	mu sync.Mutex

	users      map[string]*models.User
	baselines  map[string]*models.Baseline
	prefs      map[string]*models.RecipientPreferences
	prefsErr   error
	members    map[string][]models.User
	membersErr error
	updated    map[string]*models.RecipientPreferences
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		users:     make(map[string]*models.User),
		baselines: make(map[string]*models.Baseline),
		prefs:     make(map[string]*models.RecipientPreferences),
		members:   make(map[string][]models.User),
		updated:   make(map[string]*models.RecipientPreferences),
	}
}

func (f *fakeProfileStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[userID]; ok {
		return user, nil
	}
	return nil, utils.NewNotFoundError("user")
}

func (f *fakeProfileStore) GetBaseline(ctx context.Context, subjectID string) (*models.Baseline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.baselines[subjectID], nil
}

func (f *fakeProfileStore) GetPreferences(ctx context.Context, recipientID string) (*models.RecipientPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prefsErr != nil {
		return nil, f.prefsErr
	}
	return f.prefs[recipientID], nil
}

func (f *fakeProfileStore) UpdatePreferences(ctx context.Context, recipientID string, prefs *models.RecipientPreferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[recipientID] = prefs
	f.prefs[recipientID] = prefs
	return nil
}

func (f *fakeProfileStore) GetCircleMembers(ctx context.Context, subjectID string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.members[subjectID], nil
}

type fakeAlertStore struct {
	mu     sync.Mutex
	alerts map[string]*models.Alert

	createErr error
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{alerts: make(map[string]*models.Alert)}
}

func (f *fakeAlertStore) Create(ctx context.Context, alert *models.Alert) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	alert.ID = primitive.NewObjectID()
	alert.CreatedAt = time.Now()
	stored := *alert
	f.alerts[alert.ID.Hex()] = &stored
	return alert.ID.Hex(), nil
}

func (f *fakeAlertStore) Get(ctx context.Context, id string, timestamp time.Time) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok || !alert.Timestamp.Equal(timestamp) {
		return nil, utils.NewNotFoundError("alert")
	}
	copied := *alert
	return &copied, nil
}

func (f *fakeAlertStore) Acknowledge(ctx context.Context, id string, timestamp time.Time, actorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok || !alert.Timestamp.Equal(timestamp) {
		return utils.NewNotFoundError("alert")
	}
	alert.Acknowledged = true
	alert.AcknowledgedBy = actorID
	alert.AcknowledgedAt = time.Now()
	return nil
}

func (f *fakeAlertStore) Escalate(ctx context.Context, id string, timestamp time.Time, level models.EscalationLevel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok || !alert.Timestamp.Equal(timestamp) {
		return utils.NewNotFoundError("alert")
	}
	alert.Escalated = true
	alert.EscalationLevel = level
	alert.EscalatedAt = time.Now()
	return nil
}

func (f *fakeAlertStore) ListBySubject(ctx context.Context, subjectID string, limit int) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alert
	for _, alert := range f.alerts {
		if alert.SubjectID == subjectID {
			out = append(out, *alert)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) ListByStatus(ctx context.Context, subjectID string, acknowledged bool, limit int) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alert
	for _, alert := range f.alerts {
		if alert.SubjectID == subjectID && alert.Acknowledged == acknowledged {
			out = append(out, *alert)
		}
	}
	return out, nil
}

type fakeAttemptStore struct {
	mu       sync.Mutex
	recorded []models.NotificationAttempt
}

func (f *fakeAttemptStore) Record(ctx context.Context, attempt *models.NotificationAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, *attempt)
	return nil
}

func (f *fakeAttemptStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recorded)
}

type fakeReadingStore struct {
	mu       sync.Mutex
	readings []models.VitalReading
}

func (f *fakeReadingStore) Create(ctx context.Context, reading *models.VitalReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, *reading)
	return nil
}

// fakeGateway implements all three transport interfaces. Results are
// consumed from the script in order; the last entry repeats once the
// script runs out, and an empty script always succeeds with a message ID.
type fakeGateway struct {
	mu     sync.Mutex
	script []interfaces.GatewayResult
	calls  int
	delay  time.Duration

	lastTitle string
	lastBody  string
}

func (g *fakeGateway) next(ctx context.Context, title, body string) interfaces.GatewayResult {
	if g.delay > 0 {
		// Deliberately ignores ctx so a slow transport stays slow and the
		// caller's deadline, not the fake, decides the outcome.
		time.Sleep(g.delay)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastTitle = title
	g.lastBody = body

	if len(g.script) == 0 {
		return interfaces.GatewayResult{Success: true, MessageID: fmt.Sprintf("msg-%d", g.calls)}
	}

	result := g.script[0]
	if len(g.script) > 1 {
		g.script = g.script[1:]
	}
	return result
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGateway) SendPush(ctx context.Context, deviceToken, title, body, correlationID string) interfaces.GatewayResult {
	return g.next(ctx, title, body)
}

func (g *fakeGateway) SendSMS(ctx context.Context, phone, message, correlationID string) interfaces.GatewayResult {
	return g.next(ctx, "", message)
}

func (g *fakeGateway) SendEmail(ctx context.Context, email, subject, body, correlationID string) interfaces.GatewayResult {
	return g.next(ctx, subject, body)
}

type fakeBus struct {
	mu     sync.Mutex
	topics []string
}

func (f *fakeBus) Publish(ctx context.Context, topic string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
}

func (f *fakeBus) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.topics...)
}

type fakeSink struct {
	mu       sync.Mutex
	recorded map[string]int
}

func (f *fakeSink) Record(ctx context.Context, name string, dims map[string]string, value float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recorded == nil {
		f.recorded = make(map[string]int)
	}
	f.recorded[name]++
}

type fakeBroadcaster struct {
	mu          sync.Mutex
	alerts      []*models.Alert
	escalations []models.EscalationEvent
}

func (f *fakeBroadcaster) BroadcastAlert(alert *models.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
}

func (f *fakeBroadcaster) BroadcastEscalation(event models.EscalationEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.escalations = append(f.escalations, event)
}

func floatPtr(v float64) *float64 {
	return &v
}

// newTestDelivery builds a DeliveryService over fake gateways with retry
// delay removed so tests run instantly.
func newTestDelivery(push, sms, email *fakeGateway, attempts *fakeAttemptStore, sink interfaces.MetricsSink) *DeliveryService {
	ds := NewDeliveryService(push, sms, email, attempts, sink)
	ds.retryDelay = 0
	return ds
}

func testUser(withAllContacts bool) *models.User {
	user := &models.User{
		ID:        primitive.NewObjectID(),
		FirstName: "Dana",
		LastName:  "Reyes",
	}
	if withAllContacts {
		user.Email = "dana@example.com"
		user.Phone = "+15551234567"
		user.DeviceToken = "device-token-1"
	}
	return user
}

func testAlert(severity models.Severity) *models.Alert {
	return &models.Alert{
		ID:        primitive.NewObjectID(),
		SubjectID: "subject-1",
		Type:      models.AlertTypeVitalSigns,
		Severity:  severity,
		Message:   "Heart rate out of range",
		Timestamp: time.Now(),
	}
}
