package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/loan-simulator/config"
	"github.com/oksasatya/loan-simulator/internal/infrastructure/redisstore"
	"github.com/oksasatya/loan-simulator/pkg/helpers"
	"github.com/oksasatya/loan-simulator/pkg/mailer"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type fakePublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

func (p *fakePublisher) templates() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.jobs))
	for _, j := range p.jobs {
		out = append(out, j.Template)
	}
	return out
}

type testEnv struct {
	mr       *miniredis.Miniredis
	cfg      *config.Config
	pub      *fakePublisher
	users    *redisstore.UserStore
	sessions *redisstore.SessionStore
	loans    *redisstore.LoanStore
	drafts   *redisstore.DraftStore
	auth     *Service
	loanSvc  *LoanService
	analyst  *AnalystService
	contact  *ContactService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		AppName:         "loan-simulator",
		DraftTTL:        time.Hour,
		SessionTTL:      time.Hour,
		LoanMonthlyRate: 0.025,
		ContactInbox:    "contato@example.com",
	}
	pub := &fakePublisher{}
	notifier := NewNotifier(pub, nil, true)

	env := &testEnv{
		mr:       mr,
		cfg:      cfg,
		pub:      pub,
		users:    redisstore.NewUserStore(rdb),
		sessions: redisstore.NewSessionStore(rdb),
		loans:    redisstore.NewLoanStore(rdb),
		drafts:   redisstore.NewDraftStore(rdb),
	}
	helpers.PasswordCost = bcrypt.MinCost
	jwt := helpers.NewJWTManager("access", "refresh", time.Hour, 24*time.Hour)
	env.auth = NewService(env.users, env.sessions, jwt, notifier, nil, cfg)
	env.loanSvc = NewLoanService(env.drafts, env.loans, env.users, notifier, nil, cfg)
	env.loanSvc.Clock = func() time.Time { return testNow }
	env.analyst = NewAnalystService(env.loans, env.users, notifier, nil, cfg)
	env.analyst.Clock = func() time.Time { return testNow }
	env.contact = NewContactService(notifier, nil, cfg)
	return env
}

// validEdits fills every field with values that pass all four steps.
func validEdits(income, expenses string, amount float64) map[string]any {
	return map[string]any{
		"amount":            amount,
		"installment_count": 12.0,
		"full_name":         "Ana Souza",
		"tax_id":            "529.982.247-25",
		"email":             "ana@example.com",
		"phone":             "(11) 98765-4321",
		"birth_date":        "1990-05-01",
		"profession":        "Engenheira",
		"monthly_income":    income,
		"monthly_expenses":  expenses,
		"owns_property":     true,
		"owns_vehicle":      false,
		"agreed_to_terms":   true,
	}
}
