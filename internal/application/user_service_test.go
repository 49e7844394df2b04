package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/domain/repository"
	mailtpl "github.com/oksasatya/loan-simulator/pkg/mailer/templates"
)

func register(t *testing.T, env *testEnv) *entity.User {
	t.Helper()
	u, err := env.auth.Register(context.Background(), RegisterInput{Name: " Ana Souza ", Email: "Ana@Example.com", Password: "Senha123"})
	require.NoError(t, err)
	return u
}

func TestService_Register(t *testing.T) {
	env := newTestEnv(t)
	u := register(t, env)

	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "Ana Souza", u.Name)
	assert.Equal(t, entity.RoleCustomer, u.Role)
	assert.True(t, u.NotificationsEnabled)
	assert.NotEqual(t, "Senha123", u.Password)
	assert.Equal(t, []string{mailtpl.Welcome}, env.pub.templates())

	_, err := env.auth.Register(context.Background(), RegisterInput{Name: "Outra", Email: "ana@example.com", Password: "Senha123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_LoginRefreshLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := register(t, env)

	_, _, err := env.auth.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, pair, err := env.auth.Login(ctx, "ana@example.com", "Senha123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.UserID)

	sess, err := env.sessions.GetCurrentUser(ctx, u.ID)
	require.NoError(t, err)
	claims, err := env.auth.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.SessionID, claims.SessionID)

	rotated, uid, err := env.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)

	// the old refresh token belongs to a replaced session
	_, _, err = env.auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired)

	require.NoError(t, env.auth.Logout(ctx, u.ID))
	_, _, err = env.auth.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, _, err = env.auth.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_UpdateSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := register(t, env)
	_, _, err := env.auth.Login(ctx, "ana@example.com", "Senha123")
	require.NoError(t, err)

	name := "Ana Maria"
	off := false
	got, err := env.auth.UpdateSettings(ctx, u.ID, UpdateSettingsInput{Name: &name, NotificationsEnabled: &off})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
	assert.False(t, got.NotificationsEnabled)

	sess, err := env.sessions.GetCurrentUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", sess.Name)
	// notifications are off, so only the welcome mail went out
	assert.Equal(t, []string{mailtpl.Welcome}, env.pub.templates())

	_, err = env.auth.UpdateSettings(ctx, u.ID, UpdateSettingsInput{CurrentPassword: "bad", NewPassword: "Nova1234"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.UpdateSettings(ctx, u.ID, UpdateSettingsInput{CurrentPassword: "Senha123", NewPassword: "Nova1234"})
	require.NoError(t, err)
	_, _, err = env.auth.Login(ctx, "ana@example.com", "Nova1234")
	require.NoError(t, err)
	assert.Equal(t, []string{mailtpl.Welcome, mailtpl.ProfileUpdated}, env.pub.templates())

	_, err = env.auth.UpdateSettings(ctx, "missing", UpdateSettingsInput{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestNotifier_PublishFailureIsSwallowed(t *testing.T) {
	env := newTestEnv(t)
	env.pub.err = errors.New("broker down")
	u := register(t, env)
	assert.NotEmpty(t, u.ID)

	got, err := env.users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	_, err = env.users.GetByID(context.Background(), "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
