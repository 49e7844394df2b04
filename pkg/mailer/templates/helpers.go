package templates

import (
	"time"

	"github.com/oksasatya/loan-simulator/config"
	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/domain/simulator"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("02/01/2006 15:04") }
}

func WithChanges(ch map[string]string) Option {
	return func(d *EmailData) { d.Changes = ch }
}

func WithApplication(a *entity.LoanApplication) Option {
	return func(d *EmailData) {
		d.ApplicationID = a.ID
		d.TaxID = simulator.FormatTaxID(a.TaxID)
		d.Amount = simulator.FormatCurrency(a.Amount)
		d.Installments = a.InstallmentCount
		d.MonthlyPayment = simulator.FormatCurrency(a.MonthlyPayment)
		d.Status = string(a.Status)
		d.StatusLabel = StatusLabel(a.Status)
		d.Advice = simulator.Advice(a.Status)
	}
}

// StatusLabel is the customer-facing name of a status.
func StatusLabel(s entity.LoanStatus) string {
	switch s {
	case entity.StatusApproved:
		return "Aprovado"
	case entity.StatusAnalyzing:
		return "Em análise"
	case entity.StatusDenied:
		return "Negado"
	default:
		return string(s)
	}
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, name, email, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: recipient,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,
		DashboardURL:   cfg.DashboardURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, Welcome, name, email, email, opts...))
}

func NewLoanSubmittedData(cfg *config.Config, name, email string, app *entity.LoanApplication, opts ...Option) map[string]any {
	opts = append([]Option{WithApplication(app)}, opts...)
	return ToMap(NewBaseEmailData(cfg, LoanSubmitted, name, email, email, opts...))
}

func NewLoanReviewedData(cfg *config.Config, name, email string, app *entity.LoanApplication, r *entity.LoanReview, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, LoanReviewed, name, email, email, append([]Option{WithApplication(app)}, opts...)...)
	if r.Decision == entity.DecisionApprove {
		d.Decision = "aprovada"
	} else {
		d.Decision = "negada"
	}
	d.Justification = r.Justification
	return ToMap(d)
}

func NewProfileUpdatedData(cfg *config.Config, name, email string, changes map[string]string, opts ...Option) map[string]any {
	opts = append([]Option{WithChanges(changes)}, opts...)
	return ToMap(NewBaseEmailData(cfg, ProfileUpdated, name, email, email, opts...))
}

func NewContactMessageData(cfg *config.Config, m simulator.ContactMessage, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, ContactMessage, cfg.CompanyName, cfg.ContactInbox, cfg.ContactInbox, opts...)
	d.ContactName = m.Name
	d.ContactEmail = m.Email
	d.ContactPhone = simulator.FormatPhone(m.Phone)
	d.Subject = m.Subject
	d.Message = m.Message
	return ToMap(d)
}
