package application

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/loan-simulator/config"
	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	repo "github.com/oksasatya/loan-simulator/internal/domain/repository"
	"github.com/oksasatya/loan-simulator/internal/domain/simulator"
	mailtpl "github.com/oksasatya/loan-simulator/pkg/mailer/templates"
	"github.com/oksasatya/loan-simulator/pkg/metrics"
)

var (
	ErrJustificationRequired = errors.New("a denial needs a justification")
	ErrInvalidDecision       = errors.New("invalid decision")
)

// ApplicationSearcher returns application ids matching a free-text query.
type ApplicationSearcher interface {
	SearchApplications(ctx context.Context, q string, size int) ([]int64, error)
}

type AnalystService struct {
	Loans    repo.LoanRepository
	Users    repo.UserRepository
	Search   ApplicationSearcher
	Notifier *Notifier
	Logger   *logrus.Logger
	Cfg      *config.Config
	Clock    func() time.Time
}

func NewAnalystService(loans repo.LoanRepository, users repo.UserRepository, notifier *Notifier, logger *logrus.Logger, cfg *config.Config) *AnalystService {
	return &AnalystService{Loans: loans, Users: users, Notifier: notifier, Logger: logger, Cfg: cfg, Clock: time.Now}
}

// Stats summarizes the whole application list for the analyst dashboard.
type Stats struct {
	Total         int     `json:"total"`
	Approved      int     `json:"approved"`
	Analyzing     int     `json:"analyzing"`
	Denied        int     `json:"denied"`
	TotalAmount   float64 `json:"total_amount"`
	AverageAmount float64 `json:"average_amount"`
	ApprovalRate  float64 `json:"approval_rate"`
}

func (s *AnalystService) Stats(ctx context.Context) (*Stats, error) {
	apps, err := s.Loans.List(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{Total: len(apps)}
	for _, a := range apps {
		st.TotalAmount += a.Amount
		switch a.Status {
		case entity.StatusApproved:
			st.Approved++
		case entity.StatusAnalyzing:
			st.Analyzing++
		case entity.StatusDenied:
			st.Denied++
		}
	}
	if st.Total > 0 {
		st.AverageAmount = math.Round(st.TotalAmount/float64(st.Total)*100) / 100
		st.ApprovalRate = math.Round(float64(st.Approved)/float64(st.Total)*10000) / 100
	}
	return st, nil
}

// List returns applications newest first, filtered by q when given. Index
// hits come first in relevance order, followed by store matches the index
// missed (applications not yet indexed). Without the index, or when it fails,
// names and CPF digits are matched directly against the store.
func (s *AnalystService) List(ctx context.Context, q string) ([]entity.LoanApplication, error) {
	apps, err := s.Loans.List(ctx)
	if err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return newestFirst(apps), nil
	}
	if s.Search != nil {
		ids, err := s.Search.SearchApplications(ctx, q, 50)
		if err == nil {
			return merge(pick(apps, ids), newestFirst(filter(apps, q))), nil
		}
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("search index unavailable, scanning store")
		}
	}
	return newestFirst(filter(apps, q)), nil
}

func newestFirst(apps []entity.LoanApplication) []entity.LoanApplication {
	out := make([]entity.LoanApplication, len(apps))
	for i := range apps {
		out[len(apps)-1-i] = apps[i]
	}
	return out
}

func filter(apps []entity.LoanApplication, q string) []entity.LoanApplication {
	needle := strings.ToLower(q)
	digits := simulator.DigitsOnly(q)
	out := make([]entity.LoanApplication, 0)
	for _, a := range apps {
		if strings.Contains(strings.ToLower(a.FullName), needle) ||
			strings.Contains(strings.ToLower(a.Email), needle) ||
			(digits != "" && strings.Contains(a.TaxID, digits)) {
			out = append(out, a)
		}
	}
	return out
}

// merge appends the entries of extra whose id is not already in hits.
func merge(hits, extra []entity.LoanApplication) []entity.LoanApplication {
	seen := make(map[int64]struct{}, len(hits))
	for _, a := range hits {
		seen[a.ID] = struct{}{}
	}
	for _, a := range extra {
		if _, ok := seen[a.ID]; !ok {
			hits = append(hits, a)
		}
	}
	return hits
}

// pick keeps the order of ids and drops ids that are no longer in the store.
func pick(apps []entity.LoanApplication, ids []int64) []entity.LoanApplication {
	byID := make(map[int64]entity.LoanApplication, len(apps))
	for _, a := range apps {
		byID[a.ID] = a
	}
	out := make([]entity.LoanApplication, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

func (s *AnalystService) Get(ctx context.Context, id int64) (*Analysis, error) {
	app, err := s.Loans.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return buildAnalysis(ctx, s.Loans, app)
}

// Review records an analyst decision. The application's heuristic status is
// never rewritten; reviews are kept as a separate history.
func (s *AnalystService) Review(ctx context.Context, analystID string, id int64, decision entity.ReviewDecision, justification string) (*entity.LoanReview, error) {
	if decision != entity.DecisionApprove && decision != entity.DecisionDeny {
		return nil, ErrInvalidDecision
	}
	justification = strings.TrimSpace(justification)
	if decision == entity.DecisionDeny && justification == "" {
		return nil, ErrJustificationRequired
	}
	app, err := s.Loans.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	r := &entity.LoanReview{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		AnalystID:     analystID,
		Decision:      decision,
		Justification: justification,
		CreatedAt:     s.Clock().UTC(),
	}
	if err := s.Loans.AddReview(ctx, r); err != nil {
		return nil, err
	}
	metrics.RecordReview(string(decision))
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"application_id": app.ID, "analyst_id": analystID, "decision": decision}).Info("application reviewed")
	}

	if s.Users != nil {
		if u, err := s.Users.GetByID(ctx, app.UserID); err == nil && !u.NotificationsEnabled {
			return r, nil
		}
	}
	s.Notifier.Enqueue(ctx, app.Email, mailtpl.LoanReviewed,
		mailtpl.NewLoanReviewedData(s.Cfg, app.FullName, app.Email, app, r, mailtpl.WithTime(r.CreatedAt)))
	return r, nil
}
