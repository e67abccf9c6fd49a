package services

import (
	"context"
	"fmt"
	"sync"

	"vitalwatch/interfaces"
	"vitalwatch/models"

	"github.com/sirupsen/logrus"
)

// CircleService resolves a subject's care circle and fans alert
// deliveries out across its members.
type CircleService struct {
	profiles    interfaces.ProfileStore
	preferences *PreferenceService
	delivery    *DeliveryService
}

func NewCircleService(
	profiles interfaces.ProfileStore,
	preferences *PreferenceService,
	delivery *DeliveryService,
) *CircleService {
	return &CircleService{
		profiles:    profiles,
		preferences: preferences,
		delivery:    delivery,
	}
}

// NotifyGroup filters each recipient through their preferences, then
// delivers to every eligible recipient in parallel and flattens the
// results. A nil channel override means "derive per recipient".
func (cs *CircleService) NotifyGroup(ctx context.Context, recipients []models.User, alert *models.Alert, channels []models.Channel) []models.NotificationAttempt {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []models.NotificationAttempt
	)

	for i := range recipients {
		recipient := recipients[i]

		if !cs.preferences.ShouldSend(ctx, recipient.ID.Hex(), alert) {
			logrus.WithFields(logrus.Fields{
				"recipient": recipient.ID.Hex(),
				"alertId":   alert.ID.Hex(),
			}).Debug("Recipient suppressed by preferences")
			continue
		}

		effective := channels
		if effective == nil {
			effective = cs.preferences.ChannelsFor(ctx, recipient.ID.Hex(), alert)
		}

		wg.Add(1)
		go func(recipient models.User, channels []models.Channel) {
			defer wg.Done()

			attempts, err := cs.delivery.Send(ctx, &recipient, alert, channels)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"recipient": recipient.ID.Hex(),
					"alertId":   alert.ID.Hex(),
				}).Errorf("Delivery failed: %v", err)
			}

			mu.Lock()
			results = append(results, attempts...)
			mu.Unlock()
		}(recipient, effective)
	}

	wg.Wait()
	return results
}

// NotifyCircleOfAlert delivers a freshly created alert to the subject's
// whole care circle.
func (cs *CircleService) NotifyCircleOfAlert(ctx context.Context, alert *models.Alert) []models.NotificationAttempt {
	members, err := cs.profiles.GetCircleMembers(ctx, alert.SubjectID)
	if err != nil {
		logrus.Errorf("Failed to load care circle for subject %s: %v", alert.SubjectID, err)
		return nil
	}
	if len(members) == 0 {
		logrus.Debugf("No care circle members for subject %s", alert.SubjectID)
		return nil
	}

	return cs.NotifyGroup(ctx, members, alert, nil)
}

// BroadcastAcknowledgment tells the remaining circle members that
// someone took the alert. The actor is excluded, SMS is dropped, and the
// broadcast is forced low severity regardless of the original alert.
func (cs *CircleService) BroadcastAcknowledgment(ctx context.Context, alert *models.Alert, actorID string) []models.NotificationAttempt {
	members, err := cs.profiles.GetCircleMembers(ctx, alert.SubjectID)
	if err != nil {
		logrus.Errorf("Failed to load care circle for subject %s: %v", alert.SubjectID, err)
		return nil
	}

	var remaining []models.User
	for _, member := range members {
		if member.ID.Hex() == actorID {
			continue
		}
		remaining = append(remaining, member)
	}
	if len(remaining) == 0 {
		return nil
	}

	actorName := actorID
	if actor, err := cs.profiles.GetUser(ctx, actorID); err == nil {
		actorName = actor.FullName()
	}

	broadcast := *alert
	broadcast.Severity = models.SeverityLow
	broadcast.Message = fmt.Sprintf("%s is handling the alert: %s", actorName, alert.Message)

	return cs.NotifyGroup(ctx, remaining, &broadcast, []models.Channel{models.ChannelPush, models.ChannelEmail})
}
