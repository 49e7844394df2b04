package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/loan-simulator/config"
	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	repo "github.com/oksasatya/loan-simulator/internal/domain/repository"
	"github.com/oksasatya/loan-simulator/pkg/helpers"
	mailtpl "github.com/oksasatya/loan-simulator/pkg/mailer/templates"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionExpired     = errors.New("session expired")
)

type Service struct {
	Repo     repo.UserRepository
	Sessions repo.SessionRepository
	JWT      *helpers.JWTManager
	Notifier *Notifier
	Logger   *logrus.Logger
	Cfg      *config.Config
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func NewService(users repo.UserRepository, sessions repo.SessionRepository, jwt *helpers.JWTManager, notifier *Notifier, logger *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		Repo:     users,
		Sessions: sessions,
		JWT:      jwt,
		Notifier: notifier,
		Logger:   logger,
		Cfg:      cfg,
	}
}

type LoginResponse struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Name   string      `json:"name"`
	Role   entity.Role `json:"role"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a customer account. Analysts are only created by the seeder.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Email:                strings.ToLower(strings.TrimSpace(in.Email)),
		Password:             hash,
		Name:                 strings.TrimSpace(in.Name),
		Role:                 entity.RoleCustomer,
		NotificationsEnabled: true,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("user registered")
	}
	s.Notifier.Enqueue(ctx, u.Email, mailtpl.Welcome, mailtpl.NewWelcomeData(s.Cfg, u.Name, u.Email))
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records the session as the
// user's current login, replacing any previous one.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.tokens(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		}
		return TokenPair{}, err
	}
	sess := &entity.Session{UserID: u.ID, SessionID: sid, Email: u.Email, Name: u.Name, Role: u.Role}
	if err := s.Sessions.SetCurrentUser(ctx, sess, s.Cfg.SessionTTL); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (s *Service) tokens(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &LoginResponse{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}, pair, nil
}

// Refresh rotates the session id and both tokens. The refresh token must
// belong to the session currently recorded for the user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	cur, err := s.Sessions.GetCurrentUser(ctx, u.ID)
	if err != nil || cur.SessionID != claims.SessionID {
		return TokenPair{}, "", ErrSessionExpired
	}

	sid := uuid.NewString()
	pair, err := s.tokens(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if err := s.Sessions.Touch(ctx, u.ID, map[string]any{"sid": sid}); err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID, nil
}

// Logout clears the current-user record.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.Sessions.ClearCurrentUser(ctx, userID)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type UpdateSettingsInput struct {
	Name                 *string
	NotificationsEnabled *bool
	CurrentPassword      string
	NewPassword          string
}

// UpdateSettings applies profile and preference changes. A password change
// requires the current password.
func (s *Service) UpdateSettings(ctx context.Context, userID string, in UpdateSettingsInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	changes := map[string]string{}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" && name != u.Name {
			u.Name = name
			changes["nome"] = name
		}
	}
	if in.NotificationsEnabled != nil && *in.NotificationsEnabled != u.NotificationsEnabled {
		u.NotificationsEnabled = *in.NotificationsEnabled
		if u.NotificationsEnabled {
			changes["notificações"] = "ativadas"
		} else {
			changes["notificações"] = "desativadas"
		}
	}
	if in.NewPassword != "" {
		if !helpers.CompareHashAndPassword(u.Password, in.CurrentPassword) {
			return nil, ErrInvalidCredentials
		}
		hash, err := helpers.HashPassword(in.NewPassword)
		if err != nil {
			return nil, err
		}
		u.Password = hash
		changes["senha"] = "alterada"
	}
	if len(changes) == 0 {
		return u, nil
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := s.Sessions.Touch(ctx, u.ID, map[string]any{"name": u.Name}); err != nil && !errors.Is(err, repo.ErrNotFound) && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("session touch failed")
		}
	}
	// password changes are always announced
	if _, pwd := changes["senha"]; u.NotificationsEnabled || pwd {
		s.Notifier.Enqueue(ctx, u.Email, mailtpl.ProfileUpdated,
			mailtpl.NewProfileUpdatedData(s.Cfg, u.Name, u.Email, changes, mailtpl.WithTime(time.Now())))
	}
	return u, nil
}
