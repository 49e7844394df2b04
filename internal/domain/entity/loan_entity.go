package entity

import "time"

// LoanStatus is assigned once, at submission, by the approval heuristic.
type LoanStatus string

const (
	StatusApproved  LoanStatus = "approved"
	StatusAnalyzing LoanStatus = "analyzing"
	StatusDenied    LoanStatus = "denied"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case StatusApproved, StatusAnalyzing, StatusDenied:
		return true
	}
	return false
}

// LoanApplication is an immutable submitted record. TaxID and Phone hold digits only.
type LoanApplication struct {
	ID               int64      `json:"id"`
	UserID           string     `json:"user_id"`
	Amount           float64    `json:"amount"`
	InstallmentCount int        `json:"installment_count"`
	MonthlyPayment   float64    `json:"monthly_payment"`
	FullName         string     `json:"full_name"`
	TaxID            string     `json:"tax_id"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	BirthDate        time.Time  `json:"birth_date"`
	Profession       string     `json:"profession"`
	MonthlyIncome    float64    `json:"monthly_income"`
	MonthlyExpenses  float64    `json:"monthly_expenses"`
	OwnsProperty     bool       `json:"owns_property"`
	OwnsVehicle      bool       `json:"owns_vehicle"`
	AgreedToTerms    bool       `json:"agreed_to_terms"`
	Status           LoanStatus `json:"status"`
	SubmittedAt      time.Time  `json:"submitted_at"`
}

// ReviewDecision is an analyst's verdict on an application.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionDeny    ReviewDecision = "deny"
)

// LoanReview is appended by an analyst; it never rewrites the application status.
type LoanReview struct {
	ID            string         `json:"id"`
	ApplicationID int64          `json:"application_id"`
	AnalystID     string         `json:"analyst_id"`
	Decision      ReviewDecision `json:"decision"`
	Justification string         `json:"justification,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// LoanDocument points at an uploaded income proof.
type LoanDocument struct {
	ID            string    `json:"id"`
	ApplicationID int64     `json:"application_id"`
	Filename      string    `json:"filename"`
	ContentType   string    `json:"content_type"`
	URL           string    `json:"url"`
	UploadedAt    time.Time `json:"uploaded_at"`
}
