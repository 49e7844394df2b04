package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/domain/repository"
	"github.com/oksasatya/loan-simulator/pkg/helpers"
)

const usersKey = "users"

// UserStore keeps registered accounts as one JSON list, like LoanStore.
type UserStore struct {
	rdb *redis.Client
}

func NewUserStore(rdb *redis.Client) *UserStore {
	return &UserStore{rdb: rdb}
}

func (s *UserStore) list(ctx context.Context, c redis.Cmdable) ([]entity.User, error) {
	var users []entity.User
	if _, err := helpers.RedisGetJSON(ctx, c, usersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// mutate runs fn over the full list and writes it back atomically.
func (s *UserStore) mutate(ctx context.Context, fn func([]entity.User) ([]entity.User, error)) error {
	txf := func(tx *redis.Tx) error {
		users, err := s.list(ctx, tx)
		if err != nil {
			return err
		}
		users, err = fn(users)
		if err != nil {
			return err
		}
		b, err := json.Marshal(users)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, usersKey, b, 0)
			return nil
		})
		return err
	}
	for i := 0; i < maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, usersKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("write users: %w", redis.TxFailedErr)
}

func (s *UserStore) Create(ctx context.Context, u *entity.User) error {
	return s.mutate(ctx, func(users []entity.User) ([]entity.User, error) {
		for _, existing := range users {
			if strings.EqualFold(existing.Email, u.Email) {
				return nil, repository.ErrConflict
			}
		}
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		u.CreatedAt, u.UpdatedAt = now, now
		return append(users, *u), nil
	})
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*entity.User, error) {
	users, err := s.list(ctx, s.rdb)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	users, err := s.list(ctx, s.rdb)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) Update(ctx context.Context, u *entity.User) error {
	return s.mutate(ctx, func(users []entity.User) ([]entity.User, error) {
		for i := range users {
			if users[i].ID == u.ID {
				u.UpdatedAt = time.Now().UTC()
				users[i] = *u
				return users, nil
			}
		}
		return nil, repository.ErrNotFound
	})
}

var _ repository.UserRepository = (*UserStore)(nil)
