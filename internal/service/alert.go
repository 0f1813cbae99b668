package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rentaldesk-backend/internal/domain"
	"rentaldesk-backend/internal/logger"
)

type emailAlertService struct {
	client    *sendgrid.Client
	fromEmail string
	opsEmail  string
}

// NewAlertService builds the ops alert sender. With an empty API key the
// service degrades to log-only, which is the expected mode in development.
func NewAlertService(apiKey, fromEmail, opsEmail string) AlertService {
	svc := &emailAlertService{
		fromEmail: fromEmail,
		opsEmail:  opsEmail,
	}
	if apiKey != "" {
		svc.client = sendgrid.NewSendClient(apiKey)
	}
	return svc
}

func (s *emailAlertService) SendConsistencyAlert(ctx context.Context, warning domain.ConsistencyWarning) error {
	subject := fmt.Sprintf("Consistency warning: %s", warning.Operation)
	body := fmt.Sprintf(
		"Incident %s\nRental: %s\nVehicle: %d\nOperation: %s\nDetail: %s\nAt: %s\n\n"+
			"The primary transition succeeded but the vehicle availability flag could not be verified. "+
			"Check the vehicle record and release it manually if needed.",
		warning.ID, warning.RentalID, warning.VehicleID, warning.Operation, warning.Detail,
		warning.At.Format("2006-01-02 15:04:05 MST"))
	return s.send(ctx, subject, body)
}

func (s *emailAlertService) SendReport(ctx context.Context, subject, body string) error {
	return s.send(ctx, subject, body)
}

func (s *emailAlertService) send(ctx context.Context, subject, body string) error {
	if s.client == nil {
		logger.Info("Alert delivery disabled, logging instead", "subject", subject, "body", body)
		return nil
	}

	from := mail.NewEmail("Rental Desk", s.fromEmail)
	to := mail.NewEmail("Operations", s.opsEmail)
	message := mail.NewSingleEmail(from, subject, to, body, "")

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("alert email rejected with status %d: %s", resp.StatusCode, resp.Body)
	}

	logger.Info("Alert email sent", "subject", subject, "status", resp.StatusCode)
	return nil
}
