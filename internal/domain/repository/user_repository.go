package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// UserRepository defines the interface for user-related storage operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
}

// SessionRepository keeps the "current user" of each active login.
type SessionRepository interface {
	GetCurrentUser(ctx context.Context, userID string) (*entity.Session, error)
	SetCurrentUser(ctx context.Context, s *entity.Session, ttl time.Duration) error
	Touch(ctx context.Context, userID string, fields map[string]any) error
	ClearCurrentUser(ctx context.Context, userID string) error
}
