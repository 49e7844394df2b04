package simulator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinAmount       = 1000
	MaxAmount       = 100000
	MinInstallments = 6
	MaxInstallments = 60
	MinIncome       = 1000
	MinAge          = 18

	minNameLen       = 3
	minProfessionLen = 2

	// BirthDateLayout is the wire format of birth dates.
	BirthDateLayout = "2006-01-02"
)

const (
	MsgAmountMin          = "O valor mínimo é R$ 1.000"
	MsgAmountMax          = "O valor máximo é R$ 100.000"
	MsgInstallmentsMin    = "Mínimo de 6 parcelas"
	MsgInstallmentsMax    = "Máximo de 60 parcelas"
	MsgNameRequired       = "Nome é obrigatório"
	MsgNameTooShort       = "Nome deve ter pelo menos 3 caracteres"
	MsgNameLetters        = "Nome deve conter apenas letras"
	MsgTaxIDRequired      = "CPF é obrigatório"
	MsgTaxIDInvalid       = "CPF inválido"
	MsgEmailRequired      = "Email é obrigatório"
	MsgEmailInvalid       = "Email inválido"
	MsgPhoneRequired      = "Telefone é obrigatório"
	MsgPhoneInvalid       = "Telefone inválido"
	MsgBirthDateRequired  = "Data de nascimento é obrigatória"
	MsgBirthDateInvalid   = "Data de nascimento inválida"
	MsgUnderage           = "Você deve ter pelo menos 18 anos"
	MsgProfessionRequired = "Profissão é obrigatória"
	MsgProfessionTooShort = "Profissão deve ter pelo menos 2 caracteres"
	MsgProfessionLetters  = "Profissão deve conter apenas letras"
	MsgIncomeRequired     = "Renda é obrigatória"
	MsgIncomeMin          = "Renda deve ser pelo menos R$ 1.000"
	MsgIncomeInvalid      = "Renda deve ser um valor válido"
	MsgExpensesRequired   = "Despesas mensais são obrigatórias"
	MsgExpensesInvalid    = "Despesas devem ser um valor válido"
	MsgTermsRequired      = "Você deve concordar com os termos"
)

var (
	lettersRe = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s]+$`)
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func required(s string) bool { return strings.TrimSpace(s) != "" }

func ValidateAmount(v float64) Result[float64] {
	if math.IsNaN(v) || v < MinAmount {
		return Err[float64](MsgAmountMin)
	}
	if v > MaxAmount {
		return Err[float64](MsgAmountMax)
	}
	return Ok(v)
}

func ValidateInstallments(n int) Result[int] {
	if n < MinInstallments {
		return Err[int](MsgInstallmentsMin)
	}
	if n > MaxInstallments {
		return Err[int](MsgInstallmentsMax)
	}
	return Ok(n)
}

// ValidatePersonName applies the full-name rules and returns the trimmed name.
func ValidatePersonName(s string) Result[string] {
	return lettersOnly(s, minNameLen, MsgNameRequired, MsgNameTooShort, MsgNameLetters)
}

func ValidateProfession(s string) Result[string] {
	return lettersOnly(s, minProfessionLen, MsgProfessionRequired, MsgProfessionTooShort, MsgProfessionLetters)
}

func lettersOnly(s string, minLen int, reqMsg, shortMsg, lettersMsg string) Result[string] {
	if !required(s) {
		return Err[string](reqMsg)
	}
	t := strings.TrimSpace(s)
	if utf8.RuneCountInString(t) < minLen {
		return Err[string](shortMsg)
	}
	if !lettersRe.MatchString(s) {
		return Err[string](lettersMsg)
	}
	return Ok(t)
}

// ValidateTaxID returns the 11 CPF digits.
func ValidateTaxID(s string) Result[string] {
	if !required(s) {
		return Err[string](MsgTaxIDRequired)
	}
	if !ValidCPF(s) {
		return Err[string](MsgTaxIDInvalid)
	}
	return Ok(DigitsOnly(s))
}

func ValidateEmail(s string) Result[string] {
	if !required(s) {
		return Err[string](MsgEmailRequired)
	}
	if !emailRe.MatchString(s) {
		return Err[string](MsgEmailInvalid)
	}
	return Ok(s)
}

// ValidatePhone returns the 10 or 11 phone digits.
func ValidatePhone(s string) Result[string] {
	if !required(s) {
		return Err[string](MsgPhoneRequired)
	}
	d := DigitsOnly(s)
	if len(d) != 10 && len(d) != 11 {
		return Err[string](MsgPhoneInvalid)
	}
	return Ok(d)
}

// ValidateBirthDate parses a YYYY-MM-DD date and requires an age of at least 18 on today.
func ValidateBirthDate(s string, today time.Time) Result[time.Time] {
	if !required(s) {
		return Err[time.Time](MsgBirthDateRequired)
	}
	birth, err := time.Parse(BirthDateLayout, strings.TrimSpace(s))
	if err != nil {
		return Err[time.Time](MsgBirthDateInvalid)
	}
	if Age(birth, today) < MinAge {
		return Err[time.Time](MsgUnderage)
	}
	return Ok(birth)
}

// Age counts full years between birth and today, ignoring time of day.
func Age(birth, today time.Time) int {
	age := today.Year() - birth.Year()
	if today.Month() < birth.Month() || (today.Month() == birth.Month() && today.Day() < birth.Day()) {
		age--
	}
	return age
}

func ValidateIncome(s string) Result[float64] {
	if !required(s) {
		return Err[float64](MsgIncomeRequired)
	}
	v, ok := ParseMoney(s)
	if !ok && DigitsOnly(s) != "" {
		return Err[float64](MsgIncomeInvalid)
	}
	if !ok || v < MinIncome {
		return Err[float64](MsgIncomeMin)
	}
	return Ok(v)
}

func ValidateExpenses(s string) Result[float64] {
	if !required(s) {
		return Err[float64](MsgExpensesRequired)
	}
	v, ok := ParseMoney(s)
	if !ok || v < 0 {
		return Err[float64](MsgExpensesInvalid)
	}
	return Ok(v)
}

func ValidateTerms(agreed bool) Result[bool] {
	if !agreed {
		return Err[bool](MsgTermsRequired)
	}
	return Ok(true)
}

// ParseMoney reads the digits of s as a number ("R$ 1.500" is 1500).
// It reports false when s has no digits or the value overflows.
func ParseMoney(s string) (float64, bool) {
	d := DigitsOnly(s)
	if d == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(d, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ValidateField runs the rules of a single field against the draft and returns
// the message of the first failing rule, or "" when the field is valid.
func ValidateField(f Field, d Draft, today time.Time) (string, error) {
	switch f {
	case FieldAmount:
		return ValidateAmount(d.Simulation.Amount).Message(), nil
	case FieldInstallmentCount:
		return ValidateInstallments(d.Simulation.InstallmentCount).Message(), nil
	case FieldFullName:
		return ValidatePersonName(d.Personal.FullName).Message(), nil
	case FieldTaxID:
		return ValidateTaxID(d.Personal.TaxID).Message(), nil
	case FieldEmail:
		return ValidateEmail(d.Personal.Email).Message(), nil
	case FieldPhone:
		return ValidatePhone(d.Personal.Phone).Message(), nil
	case FieldBirthDate:
		return ValidateBirthDate(d.Personal.BirthDate, today).Message(), nil
	case FieldProfession:
		return ValidateProfession(d.Financial.Profession).Message(), nil
	case FieldMonthlyIncome:
		return ValidateIncome(d.Financial.MonthlyIncome).Message(), nil
	case FieldMonthlyExpenses:
		return ValidateExpenses(d.Financial.MonthlyExpenses).Message(), nil
	case FieldOwnsProperty, FieldOwnsVehicle:
		return "", nil
	case FieldAgreedToTerms:
		return ValidateTerms(d.Review.AgreedToTerms).Message(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownField, f)
}

// ValidateStep validates exactly the fields owned by step.
func ValidateStep(step Step, d Draft, today time.Time) FieldErrors {
	errs := FieldErrors{}
	for _, f := range stepFields[step] {
		if msg, _ := ValidateField(f, d, today); msg != "" {
			errs[f] = msg
		}
	}
	return errs
}

// ValidateDraft validates every step.
func ValidateDraft(d Draft, today time.Time) FieldErrors {
	errs := FieldErrors{}
	for s := StepSimulation; s <= StepReview; s++ {
		errs.merge(ValidateStep(s, d, today))
	}
	return errs
}
