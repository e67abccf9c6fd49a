package services

import (
	"context"
	"fmt"
	"time"

	"vitalwatch/interfaces"
	"vitalwatch/utils"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSService delivers text messages through Twilio. With no credentials
// configured it degrades to a logged no-op.
type SMSService struct {
	client     *twilio.RestClient
	fromNumber string
}

func NewSMSService(accountSID, authToken, fromNumber string) *SMSService {
	if accountSID == "" || authToken == "" {
		return &SMSService{}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &SMSService{
		client:     client,
		fromNumber: fromNumber,
	}
}

func (ss *SMSService) SendSMS(ctx context.Context, phone, message, correlationID string) interfaces.GatewayResult {
	if ss.client == nil {
		logrus.Warn("Twilio not configured, skipping SMS send")
		return interfaces.GatewayResult{Success: true}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(ss.fromNumber)
	params.SetBody(message)

	started := time.Now()
	resp, err := ss.client.Api.CreateMessage(params)
	latency := time.Since(started)

	if err != nil {
		logrus.Errorf("Failed to send SMS (correlation %s): %v", correlationID, err)
		return interfaces.GatewayResult{
			Success: false,
			Latency: latency,
			Err:     utils.NewTransportError("sms", err),
		}
	}

	if resp.ErrorCode != nil {
		err := fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, derefString(resp.ErrorMessage))
		logrus.Errorf("SMS rejected (correlation %s): %v", correlationID, err)
		return interfaces.GatewayResult{
			Success: false,
			Latency: latency,
			Err:     utils.NewTransportError("sms", err),
		}
	}

	result := interfaces.GatewayResult{Success: true, Latency: latency}
	if resp.Sid != nil {
		result.MessageID = *resp.Sid
	}
	return result
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
