package services

import (
	"context"
	"time"

	"vitalwatch/interfaces"
	"vitalwatch/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
)

// PushService delivers push notifications through Firebase Cloud
// Messaging. With no FCM client configured it degrades to a logged no-op
// so local environments still exercise the pipeline.
type PushService struct {
	fcmClient *messaging.Client
}

func NewPushService(fcmClient *messaging.Client) *PushService {
	return &PushService{fcmClient: fcmClient}
}

func (ps *PushService) SendPush(ctx context.Context, deviceToken, title, body, correlationID string) interfaces.GatewayResult {
	if ps.fcmClient == nil {
		logrus.Warn("FCM not configured, skipping push send")
		return interfaces.GatewayResult{Success: true}
	}

	message := &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"correlationId": correlationID,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
				},
			},
		},
	}

	started := time.Now()
	messageID, err := ps.fcmClient.Send(ctx, message)
	latency := time.Since(started)

	if err != nil {
		logrus.Errorf("Failed to send push notification: %v", err)
		return interfaces.GatewayResult{
			Success: false,
			Latency: latency,
			Err:     utils.NewTransportError("push", err),
		}
	}

	return interfaces.GatewayResult{
		Success:   true,
		MessageID: messageID,
		Latency:   latency,
	}
}
