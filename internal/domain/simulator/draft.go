package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid value")
)

const (
	DefaultAmount       = 10000
	DefaultInstallments = 12
)

// SimulationData holds the step 1 fields.
type SimulationData struct {
	Amount           float64 `json:"amount"`
	InstallmentCount int     `json:"installment_count"`
}

// PersonalData holds the step 2 fields as typed by the user.
type PersonalData struct {
	FullName  string `json:"full_name"`
	TaxID     string `json:"tax_id"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
}

// FinancialData holds the step 3 fields. Money values stay as typed until submit.
type FinancialData struct {
	Profession      string `json:"profession"`
	MonthlyIncome   string `json:"monthly_income"`
	MonthlyExpenses string `json:"monthly_expenses"`
	OwnsProperty    bool   `json:"owns_property"`
	OwnsVehicle     bool   `json:"owns_vehicle"`
}

// ReviewData holds the step 4 fields.
type ReviewData struct {
	AgreedToTerms bool `json:"agreed_to_terms"`
}

// Draft is the in-progress application, grouped by the step that owns each field.
type Draft struct {
	Simulation SimulationData `json:"simulation"`
	Personal   PersonalData   `json:"personal"`
	Financial  FinancialData  `json:"financial"`
	Review     ReviewData     `json:"review"`
}

func NewDraft() Draft {
	return Draft{Simulation: SimulationData{Amount: DefaultAmount, InstallmentCount: DefaultInstallments}}
}

// Set applies a single presentation edit. value may be a JSON-decoded number,
// string or bool; numeric strings are accepted for numeric fields.
func (d *Draft) Set(f Field, value any) error {
	var err error
	switch f {
	case FieldAmount:
		d.Simulation.Amount, err = asFloat(value)
	case FieldInstallmentCount:
		d.Simulation.InstallmentCount, err = asInt(value)
	case FieldFullName:
		d.Personal.FullName, err = asString(value)
	case FieldTaxID:
		d.Personal.TaxID, err = asString(value)
	case FieldEmail:
		d.Personal.Email, err = asString(value)
	case FieldPhone:
		d.Personal.Phone, err = asString(value)
	case FieldBirthDate:
		d.Personal.BirthDate, err = asString(value)
	case FieldProfession:
		d.Financial.Profession, err = asString(value)
	case FieldMonthlyIncome:
		d.Financial.MonthlyIncome, err = asString(value)
	case FieldMonthlyExpenses:
		d.Financial.MonthlyExpenses, err = asString(value)
	case FieldOwnsProperty:
		d.Financial.OwnsProperty, err = asBool(value)
	case FieldOwnsVehicle:
		d.Financial.OwnsVehicle, err = asBool(value)
	case FieldAgreedToTerms:
		d.Review.AgreedToTerms, err = asBool(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	if err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidValue, f, err)
	}
	return nil
}

func asFloat(v any) (float64, error) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		f, err = x.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a finite number")
	}
	return f, nil
}

func asInt(v any) (int, error) {
	f, err := asFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, errors.New("expected whole number")
	}
	return int(f), nil
}

func asString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case json.Number:
		return x.String(), nil
	}
	return "", fmt.Errorf("expected string, got %T", v)
}

func asBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	}
	return false, fmt.Errorf("expected boolean, got %T", v)
}
