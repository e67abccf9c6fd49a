package services

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"vitalwatch/interfaces"
	"vitalwatch/utils"

	"github.com/sirupsen/logrus"
)

// EmailService delivers mail over SMTP. With no credentials configured
// it degrades to a logged no-op.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
	fromName string
}

func NewEmailService(host, port, username, password, from, fromName string) *EmailService {
	return &EmailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
	}
}

func (es *EmailService) SendEmail(ctx context.Context, email, subject, body, correlationID string) interfaces.GatewayResult {
	if es.username == "" || es.password == "" {
		logrus.Warn("SMTP not configured, skipping email send")
		return interfaces.GatewayResult{Success: true}
	}

	message := es.buildMessage(email, subject, body, correlationID)
	auth := smtp.PlainAuth("", es.username, es.password, es.host)
	addr := es.host + ":" + es.port

	started := time.Now()
	err := es.sendWithContext(ctx, addr, auth, email, message)
	latency := time.Since(started)

	if err != nil {
		logrus.Errorf("Failed to send email (correlation %s): %v", correlationID, err)
		return interfaces.GatewayResult{
			Success: false,
			Latency: latency,
			Err:     utils.NewTransportError("email", err),
		}
	}

	return interfaces.GatewayResult{
		Success:   true,
		MessageID: correlationID,
		Latency:   latency,
	}
}

// sendWithContext runs the blocking smtp call in a goroutine so the
// aggregate delivery deadline can abandon it.
func (es *EmailService) sendWithContext(ctx context.Context, addr string, auth smtp.Auth, to string, message []byte) error {
	done := make(chan error, 1)

	go func() {
		done <- smtp.SendMail(addr, auth, es.from, []string{to}, message)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (es *EmailService) buildMessage(to, subject, body, correlationID string) []byte {
	headers := fmt.Sprintf("From: %s <%s>\r\n", es.fromName, es.from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += fmt.Sprintf("X-Correlation-ID: %s\r\n", correlationID)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/plain; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	return []byte(headers + body)
}
