package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/domain/repository"
)

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// SessionStore keeps one hash per logged-in user.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) GetCurrentUser(ctx context.Context, userID string) (*entity.Session, error) {
	data, err := s.rdb.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, repository.ErrNotFound
	}
	sess := &entity.Session{
		UserID:    data["user_id"],
		SessionID: data["sid"],
		Email:     data["email"],
		Name:      data["name"],
		Role:      entity.Role(data["role"]),
	}
	if t, err := time.Parse(time.RFC3339Nano, data["created_at"]); err == nil {
		sess.CreatedAt = t
	}
	return sess, nil
}

func (s *SessionStore) SetCurrentUser(ctx context.Context, sess *entity.Session, ttl time.Duration) error {
	key := sessionKey(sess.UserID)
	created := sess.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    sess.UserID,
		"sid":        sess.SessionID,
		"email":      sess.Email,
		"name":       sess.Name,
		"role":       string(sess.Role),
		"logged_in":  true,
		"created_at": created.Format(time.RFC3339Nano),
	})
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Touch updates fields of an existing session and keeps its remaining TTL.
func (s *SessionStore) Touch(ctx context.Context, userID string, fields map[string]any) error {
	key := sessionKey(userID)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	values := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["updated_at"] = nowRFC3339()

	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return err
	}
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, values)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) ClearCurrentUser(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, sessionKey(userID)).Err()
}

var _ repository.SessionRepository = (*SessionStore)(nil)
