package repository

import (
	"context"
	"time"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/domain/simulator"
)

// ApplicationStore is the append-only list of submitted applications.
type ApplicationStore interface {
	List(ctx context.Context) ([]entity.LoanApplication, error)
	Append(ctx context.Context, app *entity.LoanApplication) error
}

// LoanRepository adds the lookups used by the dashboards.
type LoanRepository interface {
	ApplicationStore
	GetByID(ctx context.Context, id int64) (*entity.LoanApplication, error)
	ListByUser(ctx context.Context, userID string) ([]entity.LoanApplication, error)

	AddReview(ctx context.Context, r *entity.LoanReview) error
	ListReviews(ctx context.Context, applicationID int64) ([]entity.LoanReview, error)

	AddDocument(ctx context.Context, d *entity.LoanDocument) error
	ListDocuments(ctx context.Context, applicationID int64) ([]entity.LoanDocument, error)
}

// DraftSession is an open wizard owned by a user.
type DraftSession struct {
	ID        string             `json:"id"`
	Owner     string             `json:"owner"`
	State     simulator.Snapshot `json:"state"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// DraftRepository holds open wizards until they are submitted or expire.
type DraftRepository interface {
	Create(ctx context.Context, d *DraftSession, ttl time.Duration) error
	// Save updates an existing draft; it returns ErrNotFound once the draft
	// expired or was taken, so a late edit cannot revive a submitted draft.
	Save(ctx context.Context, d *DraftSession, ttl time.Duration) error
	Load(ctx context.Context, id string) (*DraftSession, error)
	Delete(ctx context.Context, id string) error
	// Take removes and returns the draft in one step; concurrent callers
	// cannot both receive it.
	Take(ctx context.Context, id string) (*DraftSession, error)
}
