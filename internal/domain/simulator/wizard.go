package simulator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
)

var (
	// ErrClosed is returned by every command once the wizard has been submitted.
	ErrClosed = errors.New("wizard already submitted")
	// ErrNotAtReview is returned by Submit outside step 4.
	ErrNotAtReview = errors.New("submit is only allowed at the review step")
	// ErrInvalidSnapshot is returned by Restore for a snapshot with an impossible step.
	ErrInvalidSnapshot = errors.New("invalid wizard snapshot")
)

// Appender persists a submitted application.
type Appender interface {
	Append(ctx context.Context, app *entity.LoanApplication) error
}

// Snapshot is the serializable state of a wizard.
type Snapshot struct {
	Step      Step        `json:"step"`
	Submitted bool        `json:"submitted"`
	Draft     Draft       `json:"draft"`
	Errors    FieldErrors `json:"errors,omitempty"`
}

// Wizard is the four-step state machine around a Draft. Transitions are strictly
// sequential; the only backward move is Retreat. A Wizard is not safe for
// concurrent use.
type Wizard struct {
	step      Step
	submitted bool
	draft     Draft
	errors    FieldErrors

	clock func() time.Time
	newID func(time.Time) int64
	rate  float64
}

type Option func(*Wizard)

// WithClock sets the time source used for age checks and submission stamps.
func WithClock(fn func() time.Time) Option {
	return func(w *Wizard) { w.clock = fn }
}

// WithIDGenerator overrides the default millisecond-timestamp id.
func WithIDGenerator(fn func(time.Time) int64) Option {
	return func(w *Wizard) { w.newID = fn }
}

// WithMonthlyRate sets the rate used to price the submitted application.
func WithMonthlyRate(rate float64) Option {
	return func(w *Wizard) { w.rate = rate }
}

func NewWizard(opts ...Option) *Wizard {
	w := &Wizard{
		step:   StepSimulation,
		draft:  NewDraft(),
		errors: FieldErrors{},
		clock:  time.Now,
		newID:  func(t time.Time) int64 { return t.UnixMilli() },
		rate:   DefaultMonthlyRate,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Restore rebuilds a wizard from a snapshot.
func Restore(s Snapshot, opts ...Option) (*Wizard, error) {
	if !s.Step.Valid() {
		return nil, ErrInvalidSnapshot
	}
	w := NewWizard(opts...)
	w.step = s.Step
	w.submitted = s.Submitted
	w.draft = s.Draft
	w.errors = FieldErrors{}
	for f, msg := range s.Errors {
		w.errors[f] = msg
	}
	return w, nil
}

func (w *Wizard) Snapshot() Snapshot {
	return Snapshot{Step: w.step, Submitted: w.submitted, Draft: w.draft, Errors: w.Errors()}
}

func (w *Wizard) Step() Step { return w.step }

func (w *Wizard) Submitted() bool { return w.submitted }

func (w *Wizard) Draft() Draft { return w.draft }

// State names the current state: one of the step names or "submitted".
func (w *Wizard) State() string {
	if w.submitted {
		return StateSubmitted
	}
	return w.step.String()
}

// Errors returns a copy of the pending error map.
func (w *Wizard) Errors() FieldErrors {
	out := make(FieldErrors, len(w.errors))
	for f, msg := range w.errors {
		out[f] = msg
	}
	return out
}

// Set applies a user edit. A field that currently shows an error is re-checked
// so a correction clears it immediately.
func (w *Wizard) Set(f Field, value any) error {
	if w.submitted {
		return ErrClosed
	}
	if err := w.draft.Set(f, value); err != nil {
		return err
	}
	if _, pending := w.errors[f]; pending {
		_, _ = w.Check(f)
	}
	return nil
}

// Check validates one field (blur) and records the outcome in the error map.
func (w *Wizard) Check(f Field) (string, error) {
	msg, err := ValidateField(f, w.draft, w.clock())
	if err != nil {
		return "", err
	}
	if msg == "" {
		delete(w.errors, f)
	} else {
		w.errors[f] = msg
	}
	return msg, nil
}

// Advance validates the current step and moves forward. On failure it returns
// the step's FieldErrors and leaves the step unchanged. At step 4 it is a no-op.
func (w *Wizard) Advance() error {
	if w.submitted {
		return ErrClosed
	}
	errs := ValidateStep(w.step, w.draft, w.clock())
	if len(errs) > 0 {
		w.errors = errs
		return errs
	}
	w.errors = FieldErrors{}
	if next, ok := w.step.next(); ok {
		w.step = next
	}
	return nil
}

// Retreat moves one step back (no-op at step 1) and always clears pending errors.
func (w *Wizard) Retreat() error {
	if w.submitted {
		return ErrClosed
	}
	w.errors = FieldErrors{}
	if prev, ok := w.step.prev(); ok {
		w.step = prev
	}
	return nil
}

// Submit validates the review step, then the whole draft, scores it, and
// appends the resulting record to store. Nothing is persisted on failure and
// the wizard stays at step 4.
func (w *Wizard) Submit(ctx context.Context, owner string, store Appender) (*entity.LoanApplication, error) {
	if w.submitted {
		return nil, ErrClosed
	}
	if w.step != StepReview {
		return nil, ErrNotAtReview
	}
	now := w.clock()
	errs := ValidateStep(StepReview, w.draft, now)
	errs.merge(ValidateDraft(w.draft, now))
	if len(errs) > 0 {
		w.errors = errs
		return nil, errs
	}

	app := w.record(owner, now)
	if err := store.Append(ctx, app); err != nil {
		return nil, err
	}
	w.submitted = true
	w.errors = FieldErrors{}
	return app, nil
}

// record builds the immutable application from a draft that passed validation.
func (w *Wizard) record(owner string, now time.Time) *entity.LoanApplication {
	d := w.draft
	income, _ := ParseMoney(d.Financial.MonthlyIncome)
	expenses, _ := ParseMoney(d.Financial.MonthlyExpenses)
	birth := ValidateBirthDate(d.Personal.BirthDate, now).Value()
	return &entity.LoanApplication{
		ID:               w.newID(now),
		UserID:           owner,
		Amount:           d.Simulation.Amount,
		InstallmentCount: d.Simulation.InstallmentCount,
		MonthlyPayment:   MonthlyPayment(d.Simulation.Amount, d.Simulation.InstallmentCount, w.rate),
		FullName:         strings.TrimSpace(d.Personal.FullName),
		TaxID:            DigitsOnly(d.Personal.TaxID),
		Email:            strings.TrimSpace(d.Personal.Email),
		Phone:            DigitsOnly(d.Personal.Phone),
		BirthDate:        birth,
		Profession:       strings.TrimSpace(d.Financial.Profession),
		MonthlyIncome:    income,
		MonthlyExpenses:  expenses,
		OwnsProperty:     d.Financial.OwnsProperty,
		OwnsVehicle:      d.Financial.OwnsVehicle,
		AgreedToTerms:    d.Review.AgreedToTerms,
		Status:           Decide(income, expenses, d.Simulation.Amount),
		SubmittedAt:      now.UTC(),
	}
}
