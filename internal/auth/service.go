package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service issues and rotates operator tokens.
type Service struct {
	operators OperatorRepository
	tokens    TokenRepository
	cfg       ServiceConfig
	now       func() time.Time
}

// NewService returns a Service. Zero TTLs default to 15 minutes for access
// tokens and 7 days for refresh tokens.
func NewService(operators OperatorRepository, tokens TokenRepository, cfg ServiceConfig) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Service{operators: operators, tokens: tokens, cfg: cfg, now: time.Now}
}

// Login checks credentials and starts a new token family.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	op, err := s.operators.GetByUsername(ctx, username)
	if errors.Is(err, ErrOperatorNotFound) {
		// Hash anyway so unknown names take as long as wrong passwords.
		_, _ = VerifyPassword(password, dummyHash) //nolint:errcheck // timing only
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := VerifyPassword(password, op.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !op.IsActive {
		return nil, ErrOperatorInactive
	}

	raw, rt, err := s.newRefresh(op.ID, "")
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, rt); err != nil {
		return nil, err
	}
	return s.pair(op, raw)
}

// Refresh exchanges a refresh token for a new pair. A token that was
// already rotated revokes its whole family and fails with ErrTokenReuse.
func (s *Service) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	old, err := s.tokens.GetByHash(ctx, HashToken(raw))
	if err != nil {
		return nil, err
	}
	if old.Revoked {
		if err := s.tokens.RevokeFamily(ctx, old.FamilyID); err != nil {
			return nil, err
		}
		return nil, ErrTokenReuse
	}
	if !s.now().Before(old.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	op, err := s.operators.GetByID(ctx, old.OperatorID)
	if err != nil {
		return nil, err
	}
	if !op.IsActive {
		return nil, ErrOperatorInactive
	}

	next, rt, err := s.newRefresh(op.ID, old.FamilyID)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Rotate(ctx, old.ID, rt); err != nil {
		return nil, err
	}
	return s.pair(op, next)
}

// Logout revokes the family of a refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, raw string) error {
	t, err := s.tokens.GetByHash(ctx, HashToken(raw))
	if errors.Is(err, ErrTokenInvalid) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.tokens.RevokeFamily(ctx, t.FamilyID)
}

// Authenticate parses an access token.
func (s *Service) Authenticate(token string) (*Claims, error) {
	return ParseAccessToken(token, s.cfg.Secret)
}

func (s *Service) newRefresh(operatorID, family string) (string, *RefreshToken, error) {
	raw, err := newRefreshToken()
	if err != nil {
		return "", nil, err
	}
	return raw, &RefreshToken{
		OperatorID: operatorID,
		FamilyID:   family,
		TokenHash:  HashToken(raw),
		ExpiresAt:  s.now().Add(s.cfg.RefreshTTL),
	}, nil
}

func (s *Service) pair(op *Operator, refresh string) (*TokenPair, error) {
	access, err := IssueAccessToken(op, s.cfg.Secret, s.cfg.AccessTTL, s.now())
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AccessTTL / time.Second),
		Operator:     op,
	}, nil
}

// dummyHash is a valid hash of a random password.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=1$MDEyMzQ1Njc4OWFiY2RlZg$yS4d5cJ0I6l5c2bX3rWk2ZlKq6k8cOYk7bQF1Yy2n0A"
