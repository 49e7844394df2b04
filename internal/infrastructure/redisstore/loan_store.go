package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/domain/repository"
	"github.com/oksasatya/loan-simulator/pkg/helpers"
)

const (
	loansKey   = "loans"
	maxRetries = 5
)

func keyReviews(id int64) string   { return "loans:" + strconv.FormatInt(id, 10) + ":reviews" }
func keyDocuments(id int64) string { return "loans:" + strconv.FormatInt(id, 10) + ":documents" }

// LoanStore keeps all applications as one JSON list, read in full and
// rewritten in full on every append, the way the browser client stored them.
// Appends run inside WATCH/MULTI so concurrent writers cannot drop records.
type LoanStore struct {
	rdb *redis.Client
}

func NewLoanStore(rdb *redis.Client) *LoanStore {
	return &LoanStore{rdb: rdb}
}

func (s *LoanStore) List(ctx context.Context) ([]entity.LoanApplication, error) {
	return s.read(ctx, s.rdb)
}

func (s *LoanStore) read(ctx context.Context, c redis.Cmdable) ([]entity.LoanApplication, error) {
	var apps []entity.LoanApplication
	if _, err := helpers.RedisGetJSON(ctx, c, loansKey, &apps); err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []entity.LoanApplication{}
	}
	return apps, nil
}

// Append stores app at the end of the list. Ids must grow with insertion
// order; a colliding id is bumped past the last stored one.
func (s *LoanStore) Append(ctx context.Context, app *entity.LoanApplication) error {
	txf := func(tx *redis.Tx) error {
		apps, err := s.read(ctx, tx)
		if err != nil {
			return err
		}
		if n := len(apps); n > 0 && app.ID <= apps[n-1].ID {
			app.ID = apps[n-1].ID + 1
		}
		apps = append(apps, *app)
		b, err := json.Marshal(apps)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, loansKey, b, 0)
			return nil
		})
		return err
	}
	for i := 0; i < maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, loansKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("append loan: %w", redis.TxFailedErr)
}

func (s *LoanStore) GetByID(ctx context.Context, id int64) (*entity.LoanApplication, error) {
	apps, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].ID == id {
			return &apps[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// ListByUser returns the user's applications, newest first.
func (s *LoanStore) ListByUser(ctx context.Context, userID string) ([]entity.LoanApplication, error) {
	apps, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.LoanApplication, 0)
	for _, a := range apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *LoanStore) AddReview(ctx context.Context, r *entity.LoanReview) error {
	return pushJSON(ctx, s.rdb, keyReviews(r.ApplicationID), r)
}

func (s *LoanStore) ListReviews(ctx context.Context, applicationID int64) ([]entity.LoanReview, error) {
	return rangeJSON[entity.LoanReview](ctx, s.rdb, keyReviews(applicationID))
}

func (s *LoanStore) AddDocument(ctx context.Context, d *entity.LoanDocument) error {
	return pushJSON(ctx, s.rdb, keyDocuments(d.ApplicationID), d)
}

func (s *LoanStore) ListDocuments(ctx context.Context, applicationID int64) ([]entity.LoanDocument, error) {
	return rangeJSON[entity.LoanDocument](ctx, s.rdb, keyDocuments(applicationID))
}

func pushJSON(ctx context.Context, rdb *redis.Client, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.RPush(ctx, key, b).Err()
}

func rangeJSON[T any](ctx context.Context, rdb *redis.Client, key string) ([]T, error) {
	raw, err := rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal([]byte(r), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

var _ repository.LoanRepository = (*LoanStore)(nil)
