package redisstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/domain/repository"
	"github.com/oksasatya/loan-simulator/internal/domain/simulator"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestLoanStore_ListEmpty(t *testing.T) {
	_, rdb := setupRedis(t)
	apps, err := NewLoanStore(rdb).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)
	assert.NotNil(t, apps)
}

func TestLoanStore_AppendKeepsOrderAndBumpsDuplicateIDs(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()
	s := NewLoanStore(rdb)

	first := &entity.LoanApplication{ID: 1000, UserID: "u1", Amount: 10000, Status: entity.StatusApproved}
	second := &entity.LoanApplication{ID: 1000, UserID: "u2", Amount: 20000, Status: entity.StatusAnalyzing}
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	apps, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, int64(1000), apps[0].ID)
	assert.Equal(t, int64(1001), apps[1].ID)
	assert.Equal(t, int64(1001), second.ID)
	assert.Equal(t, "u2", apps[1].UserID)
}

func TestLoanStore_ConcurrentAppendsAreNotLost(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()
	s := NewLoanStore(rdb)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(ctx, &entity.LoanApplication{ID: int64(i + 1), UserID: "u"})
		}(i)
	}
	wg.Wait()

	apps, err := s.List(ctx)
	require.NoError(t, err)
	// retries are bounded, so heavy contention may reject an append but never corrupts the list
	assert.NotEmpty(t, apps)
	for i := 1; i < len(apps); i++ {
		assert.Greater(t, apps[i].ID, apps[i-1].ID)
	}
}

func TestLoanStore_LookupsReviewsAndDocuments(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()
	s := NewLoanStore(rdb)

	require.NoError(t, s.Append(ctx, &entity.LoanApplication{ID: 1, UserID: "a"}))
	require.NoError(t, s.Append(ctx, &entity.LoanApplication{ID: 2, UserID: "b"}))
	require.NoError(t, s.Append(ctx, &entity.LoanApplication{ID: 3, UserID: "a"}))

	got, err := s.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "b", got.UserID)

	_, err = s.GetByID(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	mine, err := s.ListByUser(ctx, "a")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(3), mine[0].ID)

	require.NoError(t, s.AddReview(ctx, &entity.LoanReview{ID: "r1", ApplicationID: 2, Decision: entity.DecisionDeny, Justification: "renda"}))
	reviews, err := s.ListReviews(ctx, 2)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, entity.DecisionDeny, reviews[0].Decision)

	none, err := s.ListDocuments(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, s.AddDocument(ctx, &entity.LoanDocument{ID: "d1", ApplicationID: 2, Filename: "holerite.pdf"}))
	docs, err := s.ListDocuments(ctx, 2)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "holerite.pdf", docs[0].Filename)
}

func TestSessionStore_Lifecycle(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()
	s := NewSessionStore(rdb)

	_, err := s.GetCurrentUser(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	sess := &entity.Session{UserID: "u1", SessionID: "sid-1", Email: "ana@example.com", Name: "Ana", Role: entity.RoleCustomer}
	require.NoError(t, s.SetCurrentUser(ctx, sess, time.Hour))

	got, err := s.GetCurrentUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "sid-1", got.SessionID)
	assert.Equal(t, entity.RoleCustomer, got.Role)
	assert.False(t, got.CreatedAt.IsZero())

	mr.FastForward(10 * time.Minute)
	require.NoError(t, s.Touch(ctx, "u1", map[string]any{"name": "Ana Maria"}))
	assert.Equal(t, 50*time.Minute, mr.TTL(sessionKey("u1")))

	got, err = s.GetCurrentUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)

	assert.ErrorIs(t, s.Touch(ctx, "nobody", map[string]any{"name": "x"}), repository.ErrNotFound)

	require.NoError(t, s.ClearCurrentUser(ctx, "u1"))
	_, err = s.GetCurrentUser(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionStore_Expires(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()
	s := NewSessionStore(rdb)

	require.NoError(t, s.SetCurrentUser(ctx, &entity.Session{UserID: "u1", SessionID: "x"}, time.Minute))
	mr.FastForward(2 * time.Minute)
	_, err := s.GetCurrentUser(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDraftStore_SaveLoadDeleteExpire(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()
	s := NewDraftStore(rdb)

	w := simulator.NewWizard()
	require.NoError(t, w.Set(simulator.FieldAmount, 5000.0))
	d := &repository.DraftSession{ID: "d1", Owner: "u1", State: w.Snapshot()}
	assert.ErrorIs(t, s.Save(ctx, d, time.Hour), repository.ErrNotFound, "save never creates")
	require.NoError(t, s.Create(ctx, d, time.Hour))
	d.State.Step = simulator.StepPersonalData
	require.NoError(t, s.Save(ctx, d, time.Hour))

	got, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.Owner)
	assert.Equal(t, 5000.0, got.State.Draft.Simulation.Amount)
	assert.Equal(t, simulator.StepPersonalData, got.State.Step)

	taken, err := s.Take(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "u1", taken.Owner)
	_, err = s.Take(ctx, "d1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Save(ctx, d, time.Hour), repository.ErrNotFound)
	require.NoError(t, s.Create(ctx, d, time.Hour))

	require.NoError(t, s.Delete(ctx, "d1"))
	_, err = s.Load(ctx, "d1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "d1"), repository.ErrNotFound)

	require.NoError(t, s.Create(ctx, d, time.Minute))
	mr.FastForward(2 * time.Minute)
	_, err = s.Load(ctx, "d1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserStore_CreateAndUpdate(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()
	s := NewUserStore(rdb)

	u := &entity.User{Email: "ana@example.com", Name: "Ana", Role: entity.RoleCustomer}
	require.NoError(t, s.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	err := s.Create(ctx, &entity.User{Email: "ANA@example.com"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	byEmail, err := s.GetByEmail(ctx, "Ana@Example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byEmail.NotificationsEnabled = true
	require.NoError(t, s.Update(ctx, byEmail))
	byID, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, byID.NotificationsEnabled)

	assert.ErrorIs(t, s.Update(ctx, &entity.User{ID: "missing"}), repository.ErrNotFound)
	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
