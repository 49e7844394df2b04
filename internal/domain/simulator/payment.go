package simulator

import "math"

// DefaultMonthlyRate is the advertised 2.5% a.m. used for quotes.
const DefaultMonthlyRate = 0.025

// MonthlyPayment returns the fixed installment (Price table) rounded to cents.
func MonthlyPayment(amount float64, installments int, rate float64) float64 {
	if installments <= 0 || amount <= 0 {
		return 0
	}
	if rate <= 0 {
		return roundCents(amount / float64(installments))
	}
	p := amount * rate / (1 - math.Pow(1+rate, -float64(installments)))
	return roundCents(p)
}

// Quote is the simulation summary shown next to step 1.
type Quote struct {
	Amount           float64 `json:"amount"`
	InstallmentCount int     `json:"installment_count"`
	MonthlyRate      float64 `json:"monthly_rate"`
	MonthlyPayment   float64 `json:"monthly_payment"`
	TotalPayment     float64 `json:"total_payment"`
	TotalInterest    float64 `json:"total_interest"`
}

// NewQuote validates the step 1 inputs and prices them.
func NewQuote(amount float64, installments int, rate float64) (Quote, FieldErrors) {
	errs := FieldErrors{}
	if r := ValidateAmount(amount); !r.OK() {
		errs[FieldAmount] = r.Message()
	}
	if r := ValidateInstallments(installments); !r.OK() {
		errs[FieldInstallmentCount] = r.Message()
	}
	if len(errs) > 0 {
		return Quote{}, errs
	}
	pmt := MonthlyPayment(amount, installments, rate)
	total := roundCents(pmt * float64(installments))
	return Quote{
		Amount:           amount,
		InstallmentCount: installments,
		MonthlyRate:      rate,
		MonthlyPayment:   pmt,
		TotalPayment:     total,
		TotalInterest:    roundCents(total - amount),
	}, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
