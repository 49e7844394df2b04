package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
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
	ErrDraftNotFound       = errors.New("draft not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrStorageDisabled     = errors.New("document storage not configured")
	ErrUnsupportedDocument = errors.New("unsupported document type")
)

// FieldInputError reports an edit that could not be applied to a draft field.
type FieldInputError struct {
	Field simulator.Field
	Err   error
}

func (e *FieldInputError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }
func (e *FieldInputError) Unwrap() error { return e.Err }

// ApplicationIndexer mirrors submitted applications into a search index.
type ApplicationIndexer interface {
	IndexApplication(ctx context.Context, a *entity.LoanApplication) error
}

// DocumentStorage stores uploaded files and returns their URL.
type DocumentStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

var allowedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

type LoanService struct {
	Drafts   repo.DraftRepository
	Loans    repo.LoanRepository
	Users    repo.UserRepository
	Index    ApplicationIndexer
	Docs     DocumentStorage
	Notifier *Notifier
	Logger   *logrus.Logger
	Cfg      *config.Config
	Clock    func() time.Time
}

func NewLoanService(drafts repo.DraftRepository, loans repo.LoanRepository, users repo.UserRepository, notifier *Notifier, logger *logrus.Logger, cfg *config.Config) *LoanService {
	return &LoanService{
		Drafts:   drafts,
		Loans:    loans,
		Users:    users,
		Notifier: notifier,
		Logger:   logger,
		Cfg:      cfg,
		Clock:    time.Now,
	}
}

// DraftView is what the presentation layer renders for an open wizard.
type DraftView struct {
	ID        string                `json:"id"`
	State     string                `json:"state"`
	Step      simulator.Step        `json:"step"`
	Draft     simulator.Draft       `json:"draft"`
	Errors    simulator.FieldErrors `json:"errors"`
	Quote     *simulator.Quote      `json:"quote,omitempty"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func (s *LoanService) rate() float64 {
	if s.Cfg != nil && s.Cfg.LoanMonthlyRate > 0 {
		return s.Cfg.LoanMonthlyRate
	}
	return simulator.DefaultMonthlyRate
}

func (s *LoanService) draftTTL() time.Duration {
	if s.Cfg != nil && s.Cfg.DraftTTL > 0 {
		return s.Cfg.DraftTTL
	}
	return 2 * time.Hour
}

func (s *LoanService) wizardOptions() []simulator.Option {
	return []simulator.Option{simulator.WithClock(s.Clock), simulator.WithMonthlyRate(s.rate())}
}

func (s *LoanService) view(d *repo.DraftSession, w *simulator.Wizard) *DraftView {
	v := &DraftView{
		ID:        d.ID,
		State:     w.State(),
		Step:      w.Step(),
		Draft:     w.Draft(),
		Errors:    w.Errors(),
		UpdatedAt: d.UpdatedAt,
	}
	sim := w.Draft().Simulation
	if q, errs := simulator.NewQuote(sim.Amount, sim.InstallmentCount, s.rate()); len(errs) == 0 {
		v.Quote = &q
	}
	return v
}

// load restores the owner's wizard; drafts of other users are reported as missing.
func (s *LoanService) load(ctx context.Context, owner, id string) (*repo.DraftSession, *simulator.Wizard, error) {
	d, err := s.Drafts.Load(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if d.Owner != owner {
		return nil, nil, ErrDraftNotFound
	}
	w, err := simulator.Restore(d.State, s.wizardOptions()...)
	if err != nil {
		return nil, nil, err
	}
	return d, w, nil
}

func (s *LoanService) save(ctx context.Context, d *repo.DraftSession, w *simulator.Wizard) (*DraftView, error) {
	d.State = w.Snapshot()
	if err := s.Drafts.Save(ctx, d, s.draftTTL()); errors.Is(err, repo.ErrNotFound) {
		return nil, ErrDraftNotFound
	} else if err != nil {
		return nil, err
	}
	return s.view(d, w), nil
}

// OpenDraft starts a wizard at step 1 with the default simulation values.
func (s *LoanService) OpenDraft(ctx context.Context, owner string) (*DraftView, error) {
	w := simulator.NewWizard(s.wizardOptions()...)
	d := &repo.DraftSession{ID: uuid.NewString(), Owner: owner, State: w.Snapshot()}
	if err := s.Drafts.Create(ctx, d, s.draftTTL()); err != nil {
		return nil, err
	}
	return s.view(d, w), nil
}

func (s *LoanService) GetDraft(ctx context.Context, owner, id string) (*DraftView, error) {
	d, w, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return s.view(d, w), nil
}

// EditDraft applies field edits in a stable order. Nothing is saved when any
// value cannot be applied.
func (s *LoanService) EditDraft(ctx context.Context, owner, id string, values map[string]any) (*DraftView, error) {
	d, w, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.Set(simulator.Field(k), values[k]); err != nil {
			if errors.Is(err, simulator.ErrClosed) {
				return nil, err
			}
			return nil, &FieldInputError{Field: simulator.Field(k), Err: err}
		}
	}
	return s.save(ctx, d, w)
}

// CheckField validates a single field as on blur and keeps the result on the draft.
func (s *LoanService) CheckField(ctx context.Context, owner, id string, field simulator.Field) (*DraftView, error) {
	d, w, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	msg, err := w.Check(field)
	if err != nil {
		return nil, &FieldInputError{Field: field, Err: err}
	}
	if msg != "" {
		metrics.RecordFieldErrors([]string{string(field)})
	}
	return s.save(ctx, d, w)
}

// Advance moves to the next step. On validation failure the draft is saved
// with its errors and the FieldErrors are returned next to the view.
func (s *LoanService) Advance(ctx context.Context, owner, id string) (*DraftView, error) {
	d, w, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	advErr := w.Advance()
	var fe simulator.FieldErrors
	if advErr != nil && !errors.As(advErr, &fe) {
		return nil, advErr
	}
	metrics.RecordTransition("advance", advErr == nil)
	if len(fe) > 0 {
		metrics.RecordFieldErrors(fieldNames(fe))
	}
	v, err := s.save(ctx, d, w)
	if err != nil {
		return nil, err
	}
	return v, advErr
}

func (s *LoanService) Retreat(ctx context.Context, owner, id string) (*DraftView, error) {
	d, w, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := w.Retreat(); err != nil {
		return nil, err
	}
	metrics.RecordTransition("retreat", true)
	return s.save(ctx, d, w)
}

// Submit finalizes the wizard: the application is scored, persisted, indexed
// and announced. The draft is claimed before the record is stored, so a
// repeated or concurrent submit of the same draft gets ErrClosed.
func (s *LoanService) Submit(ctx context.Context, owner, id string) (*entity.LoanApplication, *DraftView, error) {
	d, w, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, nil, err
	}
	app, err := w.Submit(ctx, owner, &claimingAppender{svc: s, draftID: id})
	if err != nil {
		metrics.RecordTransition("submit", false)
		var fe simulator.FieldErrors
		if errors.As(err, &fe) {
			metrics.RecordFieldErrors(fieldNames(fe))
			v, saveErr := s.save(ctx, d, w)
			if saveErr != nil {
				return nil, nil, saveErr
			}
			return nil, v, err
		}
		return nil, nil, err
	}
	metrics.RecordTransition("submit", true)
	metrics.RecordSubmission(string(app.Status))

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"application_id": app.ID, "user_id": owner, "status": app.Status}).Info("application submitted")
	}
	s.indexApplication(ctx, app)
	s.notifySubmitted(ctx, app)
	return app, s.view(d, w), nil
}

// claimingAppender takes the draft out of the store before appending the
// record. Only the caller that wins the take writes an application; if the
// append then fails the draft is put back so the user can retry.
type claimingAppender struct {
	svc     *LoanService
	draftID string
}

func (a *claimingAppender) Append(ctx context.Context, app *entity.LoanApplication) error {
	claimed, err := a.svc.Drafts.Take(ctx, a.draftID)
	if errors.Is(err, repo.ErrNotFound) {
		return simulator.ErrClosed
	}
	if err != nil {
		return err
	}
	if err := a.svc.Loans.Append(ctx, app); err != nil {
		if restoreErr := a.svc.Drafts.Create(ctx, claimed, a.svc.draftTTL()); restoreErr != nil && a.svc.Logger != nil {
			a.svc.Logger.WithError(restoreErr).WithField("draft_id", a.draftID).Warn("draft restore failed")
		}
		return err
	}
	return nil
}

// Abandon discards an open draft.
func (s *LoanService) Abandon(ctx context.Context, owner, id string) error {
	if _, _, err := s.load(ctx, owner, id); err != nil {
		return err
	}
	if err := s.Drafts.Delete(ctx, id); errors.Is(err, repo.ErrNotFound) {
		return ErrDraftNotFound
	} else if err != nil {
		return err
	}
	return nil
}

// Quote prices a simulation without opening a draft.
func (s *LoanService) Quote(amount float64, installments int) (simulator.Quote, simulator.FieldErrors) {
	metrics.QuoteRequests.Inc()
	return simulator.NewQuote(amount, installments, s.rate())
}

func (s *LoanService) indexApplication(ctx context.Context, app *entity.LoanApplication) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexApplication(ctx, app); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("application_id", app.ID).Warn("index application failed")
	}
}

func (s *LoanService) notifySubmitted(ctx context.Context, app *entity.LoanApplication) {
	if s.Users != nil {
		if u, err := s.Users.GetByID(ctx, app.UserID); err == nil && !u.NotificationsEnabled {
			return
		}
	}
	s.Notifier.Enqueue(ctx, app.Email, mailtpl.LoanSubmitted,
		mailtpl.NewLoanSubmittedData(s.Cfg, app.FullName, app.Email, app, mailtpl.WithTime(app.SubmittedAt)))
}

// ListMine returns the user's applications, newest first.
func (s *LoanService) ListMine(ctx context.Context, userID string) ([]entity.LoanApplication, error) {
	return s.Loans.ListByUser(ctx, userID)
}

func (s *LoanService) getOwned(ctx context.Context, userID string, id int64) (*entity.LoanApplication, error) {
	app, err := s.Loans.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

func (s *LoanService) GetMine(ctx context.Context, userID string, id int64) (*entity.LoanApplication, error) {
	return s.getOwned(ctx, userID, id)
}

// Analysis is an application together with its guidance and history.
type Analysis struct {
	Application entity.LoanApplication `json:"application"`
	Advice      []string               `json:"advice"`
	Reviews     []entity.LoanReview    `json:"reviews"`
	Documents   []entity.LoanDocument  `json:"documents"`
}

func buildAnalysis(ctx context.Context, loans repo.LoanRepository, app *entity.LoanApplication) (*Analysis, error) {
	reviews, err := loans.ListReviews(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	docs, err := loans.ListDocuments(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	return &Analysis{Application: *app, Advice: simulator.Advice(app.Status), Reviews: reviews, Documents: docs}, nil
}

func (s *LoanService) Analysis(ctx context.Context, userID string, id int64) (*Analysis, error) {
	app, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return buildAnalysis(ctx, s.Loans, app)
}

// UploadDocument stores an income proof for one of the user's applications.
func (s *LoanService) UploadDocument(ctx context.Context, userID string, id int64, filename, contentType string, r io.Reader) (*entity.LoanDocument, error) {
	if s.Docs == nil {
		return nil, ErrStorageDisabled
	}
	contentType, r, err := sniffDocument(contentType, r)
	if err != nil {
		return nil, err
	}
	app, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	docID := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("applications", fmt.Sprint(app.ID), docID+ext))
	url, err := s.Docs.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}
	doc := &entity.LoanDocument{
		ID:            docID,
		ApplicationID: app.ID,
		Filename:      filepath.Base(filename),
		ContentType:   contentType,
		URL:           url,
		UploadedAt:    s.Clock().UTC(),
	}
	if err := s.Loans.AddDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// sniffDocument detects the type of r from its first 512 bytes and returns a
// reader that still yields the whole content. A declared type other than
// empty or application/octet-stream must agree with the detected one.
func sniffDocument(declared string, r io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	detected := mediaType(http.DetectContentType(head))
	if !allowedDocumentTypes[detected] {
		return "", nil, ErrUnsupportedDocument
	}
	if d := mediaType(declared); d != "" && d != "application/octet-stream" && d != detected {
		return "", nil, ErrUnsupportedDocument
	}
	return detected, io.MultiReader(bytes.NewReader(head), r), nil
}

func mediaType(ct string) string {
	return strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
}

func fieldNames(fe simulator.FieldErrors) []string {
	out := make([]string, 0, len(fe))
	for f := range fe {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}
