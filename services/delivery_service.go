package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vitalwatch/interfaces"
	"vitalwatch/metrics"
	"vitalwatch/models"
	"vitalwatch/utils"

	"github.com/sirupsen/logrus"
)

const (
	// DeliveryTimeout bounds one whole Send call, not each channel.
	DeliveryTimeout = 30 * time.Second

	// MaxSendAttempts is the total attempts per channel, the first send
	// included.
	MaxSendAttempts = 3
)

// DeliveryService fans one alert out across a recipient's channels.
// The initial batch runs concurrently under a single deadline; retries
// for failed channels run sequentially afterward, outside the deadline
// race, so a retried notification can land past the nominal SLA.
type DeliveryService struct {
	push     interfaces.PushGateway
	sms      interfaces.SMSGateway
	email    interfaces.EmailGateway
	attempts interfaces.AttemptStore
	metrics  interfaces.MetricsSink

	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
}

func NewDeliveryService(
	push interfaces.PushGateway,
	sms interfaces.SMSGateway,
	email interfaces.EmailGateway,
	attempts interfaces.AttemptStore,
	sink interfaces.MetricsSink,
) *DeliveryService {
	return &DeliveryService{
		push:        push,
		sms:         sms,
		email:       email,
		attempts:    attempts,
		metrics:     sink,
		timeout:     DeliveryTimeout,
		maxAttempts: MaxSendAttempts,
		retryDelay:  2 * time.Second,
	}
}

type channelOutcome struct {
	channel models.Channel
	result  interfaces.GatewayResult
	latency time.Duration
}

// Send dispatches the alert to the recipient on every requested channel
// that has a usable contact point. Every attempt, success or failure, is
// persisted before Send returns. The returned error is non-nil only when
// the aggregate deadline expires; per-channel failures are reported in
// the attempt records instead.
func (ds *DeliveryService) Send(ctx context.Context, recipient *models.User, alert *models.Alert, channels []models.Channel) ([]models.NotificationAttempt, error) {
	usable := ds.usableChannels(recipient, channels)
	if len(usable) == 0 {
		logrus.WithFields(logrus.Fields{
			"recipient": recipient.ID.Hex(),
			"alertId":   alert.ID.Hex(),
		}).Debug("No usable contact points for requested channels")
		return nil, nil
	}

	title, body := composeMessage(alert)

	batchCtx, cancel := context.WithTimeout(ctx, ds.timeout)
	defer cancel()

	outcomes := make(chan channelOutcome, len(usable))
	for _, channel := range usable {
		go func(ch models.Channel) {
			started := time.Now()
			result := ds.dispatch(batchCtx, ch, recipient, title, body)
			outcomes <- channelOutcome{channel: ch, result: result, latency: time.Since(started)}
		}(channel)
	}

	var attempts []models.NotificationAttempt
	retryCounts := make(map[models.Channel]int)
	var failed []models.Channel

	received := 0
	timedOut := false

collect:
	for received < len(usable) {
		select {
		case outcome := <-outcomes:
			received++
			attempt := ds.recordOutcome(recipient, alert, outcome, retryCounts)
			attempts = append(attempts, attempt)
			if !outcome.result.Success {
				failed = append(failed, outcome.channel)
			}
		case <-batchCtx.Done():
			timedOut = true
			break collect
		}
	}

	if timedOut {
		logrus.WithFields(logrus.Fields{
			"alertId":   alert.ID.Hex(),
			"recipient": recipient.ID.Hex(),
			"completed": received,
			"requested": len(usable),
		}).Error("Notification delivery timed out")
		return attempts, utils.NewTimeoutError(
			fmt.Sprintf("delivery exceeded %s with %d of %d channels completed", ds.timeout, received, len(usable)))
	}

	// Sequential retries for whatever failed in the batch. Deliberately
	// not reparallelized and not part of the deadline race.
	for _, channel := range failed {
		attempts = append(attempts, ds.retryChannel(ctx, channel, recipient, alert, title, body, retryCounts)...)
	}

	return attempts, nil
}

func (ds *DeliveryService) retryChannel(ctx context.Context, channel models.Channel, recipient *models.User, alert *models.Alert, title, body string, retryCounts map[models.Channel]int) []models.NotificationAttempt {
	var attempts []models.NotificationAttempt

	for retryCounts[channel] < ds.maxAttempts {
		if ds.retryDelay > 0 {
			time.Sleep(ds.retryDelay)
		}

		started := time.Now()
		result := ds.dispatch(ctx, channel, recipient, title, body)
		outcome := channelOutcome{channel: channel, result: result, latency: time.Since(started)}

		attempt := ds.recordOutcome(recipient, alert, outcome, retryCounts)
		attempts = append(attempts, attempt)

		if result.Success {
			break
		}
	}

	return attempts
}

// recordOutcome persists one attempt and emits its metrics. The retry
// counter increments on each failure, so a channel that fails twice and
// then delivers ends at 2 while one that exhausts all attempts ends at
// the cap.
func (ds *DeliveryService) recordOutcome(recipient *models.User, alert *models.Alert, outcome channelOutcome, retryCounts map[models.Channel]int) models.NotificationAttempt {
	now := time.Now()

	attempt := models.NotificationAttempt{
		ID:          utils.GenerateUUID(),
		AlertID:     alert.ID.Hex(),
		RecipientID: recipient.ID.Hex(),
		Channel:     outcome.channel,
		SentAt:      now,
		Latency:     outcome.latency,
	}
	if outcome.result.Latency > 0 {
		attempt.Latency = outcome.result.Latency
	}

	if outcome.result.Success {
		attempt.RetryCount = retryCounts[outcome.channel]
		if outcome.result.MessageID != "" {
			attempt.Status = models.AttemptStatusDelivered
			attempt.DeliveredAt = &now
		} else {
			attempt.Status = models.AttemptStatusSent
		}
	} else {
		retryCounts[outcome.channel]++
		attempt.RetryCount = retryCounts[outcome.channel]
		if retryCounts[outcome.channel] < ds.maxAttempts {
			attempt.Status = models.AttemptStatusRetrying
		} else {
			attempt.Status = models.AttemptStatusFailed
		}
		if outcome.result.Err != nil {
			attempt.FailureReason = outcome.result.Err.Error()
		}
	}

	// Persistence uses its own context so a canceled batch still gets
	// its completed attempts on record.
	persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ds.attempts.Record(persistCtx, &attempt); err != nil {
		logrus.Errorf("Failed to record notification attempt %s: %v", attempt.ID, err)
	}

	ds.emitMetrics(persistCtx, attempt)

	return attempt
}

func (ds *DeliveryService) emitMetrics(ctx context.Context, attempt models.NotificationAttempt) {
	if ds.metrics == nil {
		return
	}

	dims := map[string]string{
		"channel": string(attempt.Channel),
		"status":  attempt.Status,
	}

	latencyMS := float64(attempt.Latency.Milliseconds())
	ds.metrics.Record(ctx, metrics.MetricDeliveryLatencyMS, dims, latencyMS)
	ds.metrics.Record(ctx, metrics.MetricDeliveryCount, dims, 1)

	slaMet := 0.0
	if attempt.Latency <= DeliveryTimeout {
		slaMet = 1.0
	}
	ds.metrics.Record(ctx, metrics.MetricSLACompliance, dims, slaMet)
}

func (ds *DeliveryService) dispatch(ctx context.Context, channel models.Channel, recipient *models.User, title, body string) interfaces.GatewayResult {
	correlationID := utils.GenerateUUID()

	switch channel {
	case models.ChannelPush:
		return ds.push.SendPush(ctx, recipient.DeviceToken, title, body, correlationID)
	case models.ChannelSMS:
		message := utils.TruncateString(title+": "+body, 150)
		return ds.sms.SendSMS(ctx, recipient.Phone, message, correlationID)
	case models.ChannelEmail:
		return ds.email.SendEmail(ctx, recipient.Email, title, body, correlationID)
	default:
		return interfaces.GatewayResult{
			Success: false,
			Err:     utils.NewTransportError(string(channel), fmt.Errorf("unknown channel")),
		}
	}
}

func (ds *DeliveryService) usableChannels(recipient *models.User, channels []models.Channel) []models.Channel {
	var usable []models.Channel
	seen := make(map[models.Channel]bool)

	for _, channel := range channels {
		if seen[channel] {
			continue
		}
		seen[channel] = true

		switch channel {
		case models.ChannelPush:
			if recipient.DeviceToken != "" {
				usable = append(usable, channel)
			}
		case models.ChannelSMS:
			if recipient.Phone != "" {
				usable = append(usable, channel)
			}
		case models.ChannelEmail:
			if recipient.Email != "" {
				usable = append(usable, channel)
			}
		}
	}

	return usable
}

func composeMessage(alert *models.Alert) (title, body string) {
	switch alert.Type {
	case models.AlertTypeVitalSigns:
		title = "Vital Signs Alert"
	case models.AlertTypeMedication:
		title = "Medication Reminder"
	case models.AlertTypeAppointment:
		title = "Appointment Reminder"
	case models.AlertTypeEmergency:
		title = "EMERGENCY ALERT"
	case models.AlertTypeDevice:
		title = "Device Alert"
	case models.AlertTypeCheckIn:
		title = "Check-in"
	case models.AlertTypeFallDetection:
		title = "Fall Detected"
	default:
		title = "Alert"
	}

	if alert.Severity == models.SeverityCritical && alert.Type != models.AlertTypeEmergency {
		title = "URGENT: " + title
	}

	body = alert.Message
	if body == "" && len(alert.Anomalies) > 0 {
		var parts []string
		for _, anomaly := range alert.Anomalies {
			parts = append(parts, anomaly.Description)
		}
		body = strings.Join(parts, "; ")
	}

	return title, body
}
