package application

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/loan-simulator/config"
	"github.com/oksasatya/loan-simulator/internal/domain/simulator"
	mailtpl "github.com/oksasatya/loan-simulator/pkg/mailer/templates"
)

// ValidationError carries per-field messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

type ContactService struct {
	Notifier *Notifier
	Logger   *logrus.Logger
	Cfg      *config.Config
}

func NewContactService(notifier *Notifier, logger *logrus.Logger, cfg *config.Config) *ContactService {
	return &ContactService{Notifier: notifier, Logger: logger, Cfg: cfg}
}

// Send validates the contact form and forwards it to the support inbox.
func (s *ContactService) Send(ctx context.Context, m simulator.ContactMessage) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)
	if errs := simulator.ValidateContact(m); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	if s.Logger != nil {
		s.Logger.WithField("subject", m.Subject).Info("contact message received")
	}
	s.Notifier.Enqueue(ctx, s.Cfg.ContactInbox, mailtpl.ContactMessage, mailtpl.NewContactMessageData(s.Cfg, m))
	return nil
}
