package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stellarreg/api/internal/models"
	"stellarreg/api/internal/repository"
	"stellarreg/api/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalid     = errors.New("invalid session")
	ErrSessionExpired     = errors.New("session expired")
)

const DefaultSessionTTL = 24 * time.Hour

// AccountStore is the credential store behind admin sessions.
type AccountStore interface {
	FindByUsername(ctx context.Context, username string) (models.AdminAccount, error)
	GetByID(ctx context.Context, id string) (models.AdminAccount, error)
	UpdateSession(ctx context.Context, id string, tokenHash []byte, expiresAt time.Time) error
	ClearSession(ctx context.Context, id string, tokenHash []byte) error
	ClearExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type AuthOptions struct {
	SessionTTL time.Duration
	// BestEffortSession reports a login as successful even when the session
	// could not be stored. The token handed out is then unusable.
	BestEffortSession bool
}

type AuthService struct {
	accounts  AccountStore
	passwords *security.Hasher
	sessions  *security.Hasher
	opts      AuthOptions
	log       zerolog.Logger
	dummyHash []byte

	// injectable for tests
	Now      func() time.Time
	NewToken func() string
}

func NewAuthService(
	accounts AccountStore,
	passwords *security.Hasher,
	sessions *security.Hasher,
	opts AuthOptions,
	log zerolog.Logger,
) (*AuthService, error) {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}

	// verified against for unknown usernames so both failure paths cost one hash
	dummy, err := passwords.Hash(security.NewSessionToken())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AuthService{
		accounts:  accounts,
		passwords: passwords,
		sessions:  sessions,
		opts:      opts,
		log:       log,
		dummyHash: dummy,
		Now:       time.Now,
		NewToken:  security.NewSessionToken,
	}, nil
}

type LoginResult struct {
	Token     string
	AdminID   string
	ExpiresAt time.Time
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (LoginResult, error) {
	if username == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	admin, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			s.passwords.Verify(password, s.dummyHash)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("find admin: %w", err)
	}

	if !s.passwords.Verify(password, admin.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	return s.issue(ctx, admin.ID)
}

// issue mints a token for adminID and overwrites any previous session.
func (s *AuthService) issue(ctx context.Context, adminID string) (LoginResult, error) {
	token := s.NewToken()
	expiresAt := s.Now().Add(s.opts.SessionTTL)

	tokenHash, err := s.sessions.Hash(token)
	if err != nil {
		return LoginResult{}, fmt.Errorf("hash session token: %w", err)
	}

	if err := s.accounts.UpdateSession(ctx, adminID, tokenHash, expiresAt); err != nil {
		if !s.opts.BestEffortSession {
			return LoginResult{}, fmt.Errorf("store session: %w", err)
		}
		s.log.Error().Err(err).Str("admin_id", adminID).Msg("store session failed, continuing")
	}

	return LoginResult{
		Token:     token,
		AdminID:   adminID,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate decides whether token currently authorizes adminID. It returns
// ErrSessionExpired when the caller should log in again and ErrSessionInvalid
// for every other rejection. Any other error comes from the store.
func (s *AuthService) Validate(ctx context.Context, adminID string, token string) error {
	_, err := s.validate(ctx, adminID, token)
	return err
}

func (s *AuthService) validate(ctx context.Context, adminID string, token string) (models.AdminAccount, error) {
	if adminID == "" || token == "" {
		return models.AdminAccount{}, ErrSessionInvalid
	}

	admin, err := s.accounts.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return models.AdminAccount{}, ErrSessionInvalid
		}
		return models.AdminAccount{}, fmt.Errorf("load admin: %w", err)
	}

	if !admin.HasSession() || !s.Now().Before(*admin.SessionExpiresAt) {
		return models.AdminAccount{}, ErrSessionExpired
	}

	if !s.sessions.Verify(token, admin.SessionTokenHash) {
		return models.AdminAccount{}, ErrSessionInvalid
	}
	return admin, nil
}

// Logout drops the session identified by token. It is a no-op for a session
// that has already been replaced by a newer login.
func (s *AuthService) Logout(ctx context.Context, adminID string, token string) error {
	admin, err := s.validate(ctx, adminID, token)
	if err != nil {
		return err
	}
	if err := s.accounts.ClearSession(ctx, admin.ID, admin.SessionTokenHash); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *AuthService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	cleared, err := s.accounts.ClearExpiredSessions(ctx, s.Now())
	if err != nil {
		return 0, fmt.Errorf("clear expired sessions: %w", err)
	}
	return cleared, nil
}
