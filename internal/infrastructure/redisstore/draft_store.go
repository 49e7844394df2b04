package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/loan-simulator/internal/domain/repository"
	"github.com/oksasatya/loan-simulator/pkg/helpers"
)

func draftKey(id string) string {
	return "simulator:draft:" + id
}

// DraftStore keeps open wizards as JSON blobs; the TTL is refreshed on
// every save so an abandoned draft simply expires.
type DraftStore struct {
	rdb *redis.Client
}

func NewDraftStore(rdb *redis.Client) *DraftStore {
	return &DraftStore{rdb: rdb}
}

func (s *DraftStore) Create(ctx context.Context, d *repository.DraftSession, ttl time.Duration) error {
	d.UpdatedAt = time.Now().UTC()
	return helpers.RedisSetJSON(ctx, s.rdb, draftKey(d.ID), d, ttl)
}

func (s *DraftStore) Save(ctx context.Context, d *repository.DraftSession, ttl time.Duration) error {
	d.UpdatedAt = time.Now().UTC()
	ok, err := helpers.RedisReplaceJSON(ctx, s.rdb, draftKey(d.ID), d, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (s *DraftStore) Load(ctx context.Context, id string) (*repository.DraftSession, error) {
	var d repository.DraftSession
	found, err := helpers.RedisGetJSON(ctx, s.rdb, draftKey(id), &d)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (s *DraftStore) Take(ctx context.Context, id string) (*repository.DraftSession, error) {
	var d repository.DraftSession
	found, err := helpers.RedisTakeJSON(ctx, s.rdb, draftKey(id), &d)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

// Delete reports ErrNotFound when the draft already expired.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	existed, err := helpers.RedisDel(ctx, s.rdb, draftKey(id))
	if err != nil {
		return err
	}
	if !existed {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.DraftRepository = (*DraftStore)(nil)
