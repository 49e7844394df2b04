package simulator

import (
	"sort"
	"strings"
)

// Field names as exchanged with the presentation layer and used as keys of FieldErrors.
type Field string

const (
	FieldAmount           Field = "amount"
	FieldInstallmentCount Field = "installment_count"
	FieldFullName         Field = "full_name"
	FieldTaxID            Field = "tax_id"
	FieldEmail            Field = "email"
	FieldPhone            Field = "phone"
	FieldBirthDate        Field = "birth_date"
	FieldProfession       Field = "profession"
	FieldMonthlyIncome    Field = "monthly_income"
	FieldMonthlyExpenses  Field = "monthly_expenses"
	FieldOwnsProperty     Field = "owns_property"
	FieldOwnsVehicle      Field = "owns_vehicle"
	FieldAgreedToTerms    Field = "agreed_to_terms"
)

// Step is one of the four sequential wizard stages.
type Step int

const (
	StepSimulation Step = iota + 1
	StepPersonalData
	StepFinancialData
	StepReview
)

// StateSubmitted names the terminal state reached after a successful submit.
const StateSubmitted = "submitted"

var stepNames = map[Step]string{
	StepSimulation:    "simulation",
	StepPersonalData:  "personal_data",
	StepFinancialData: "financial_data",
	StepReview:        "review",
}

// stepFields lists the fields gated by each step. The ownership flags belong to
// step 3 but carry no rules.
var stepFields = map[Step][]Field{
	StepSimulation:    {FieldAmount, FieldInstallmentCount},
	StepPersonalData:  {FieldFullName, FieldTaxID, FieldEmail, FieldPhone, FieldBirthDate},
	StepFinancialData: {FieldProfession, FieldMonthlyIncome, FieldMonthlyExpenses},
	StepReview:        {FieldAgreedToTerms},
}

func (s Step) Valid() bool { return s >= StepSimulation && s <= StepReview }

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

// Fields returns a copy of the validated fields owned by the step.
func (s Step) Fields() []Field {
	return append([]Field(nil), stepFields[s]...)
}

func (s Step) next() (Step, bool) {
	if s >= StepReview {
		return s, false
	}
	return s + 1, true
}

func (s Step) prev() (Step, bool) {
	if s <= StepSimulation {
		return s, false
	}
	return s - 1, true
}

// FieldErrors maps a field to its first failing rule's message.
type FieldErrors map[Field]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for f := range e {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[Field(k)])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e FieldErrors) merge(other FieldErrors) {
	for f, msg := range other {
		if _, exists := e[f]; !exists {
			e[f] = msg
		}
	}
}
