package services

import (
	"context"
	"time"

	"vitalwatch/interfaces"
	"vitalwatch/models"

	"github.com/sirupsen/logrus"
)

// PreferenceService decides, per recipient, whether an alert should be
// delivered at all and on which channels. Preferences are re-read every
// time recipients are derived, so a later re-notification of the same
// group sees fresh settings.
type PreferenceService struct {
	profiles interfaces.ProfileStore
	now      func() time.Time
}

func NewPreferenceService(profiles interfaces.ProfileStore) *PreferenceService {
	return &PreferenceService{
		profiles: profiles,
		now:      time.Now,
	}
}

// ShouldSend applies the suppression rules in order: missing preferences
// default to send; an explicit type disable always suppresses (critical
// included); a severity allow-list and quiet hours suppress non-critical
// alerts only.
func (ps *PreferenceService) ShouldSend(ctx context.Context, recipientID string, alert *models.Alert) bool {
	prefs, err := ps.profiles.GetPreferences(ctx, recipientID)
	if err != nil {
		logrus.Warnf("Failed to load preferences for %s, defaulting to send: %v", recipientID, err)
		return true
	}
	if prefs == nil {
		return true
	}

	if typePref, ok := prefs.AlertTypes[alert.Type]; ok {
		if !typePref.Enabled {
			return false
		}

		if alert.Severity != models.SeverityCritical && len(typePref.Severities) > 0 {
			if !severityAllowed(typePref.Severities, alert.Severity) {
				return false
			}
		}
	}

	if alert.Severity == models.SeverityCritical {
		return true
	}

	if prefs.QuietHours != nil && ps.inQuietHours(*prefs.QuietHours) {
		return false
	}

	return true
}

// ChannelsFor returns the channels to deliver on. Critical alerts use
// every platform channel regardless of the recipient's subset; otherwise
// the recipient's configured channels, defaulting to all when unset.
func (ps *PreferenceService) ChannelsFor(ctx context.Context, recipientID string, alert *models.Alert) []models.Channel {
	if alert.Severity == models.SeverityCritical {
		return models.AllChannels()
	}

	prefs, err := ps.profiles.GetPreferences(ctx, recipientID)
	if err != nil || prefs == nil || len(prefs.Channels) == 0 {
		return models.AllChannels()
	}

	return prefs.Channels
}

// inQuietHours checks the local clock against a [start, end) window.
// Start > end means the window wraps past midnight.
func (ps *PreferenceService) inQuietHours(window models.QuietHours) bool {
	start, err := time.Parse("15:04", window.Start)
	if err != nil {
		return false
	}
	end, err := time.Parse("15:04", window.End)
	if err != nil {
		return false
	}

	now := ps.now()
	current := now.Hour()*60 + now.Minute()
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()

	if startMin <= endMin {
		return current >= startMin && current < endMin
	}
	return current >= startMin || current < endMin
}

func severityAllowed(allowed []models.Severity, severity models.Severity) bool {
	for _, s := range allowed {
		if s == severity {
			return true
		}
	}
	return false
}
