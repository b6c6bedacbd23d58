package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/user"
)

type UserService interface {
	CreateAdmin(ctx context.Context, dto user.CreateUserDTO) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Fallback(ctx context.Context) (*user.User, error)
}

type Options struct {
	AdminSignupToken     string
	TrustIdentityHeaders bool
	DevFallback          bool
}

// Service is the main auth service with dependencies
type Service struct {
	users          UserService
	tokenGenerator TokenGenerator
	opts           Options
	logger         *slog.Logger
}

// NewService creates a new auth service
func NewService(users UserService, tokenGen TokenGenerator, opts Options, logger *slog.Logger) *Service {
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		opts:           opts,
		logger:         logger,
	}
}

// Signup creates an admin account when the caller presents the server's
// signup token.
func (s *Service) Signup(ctx context.Context, dto SignupDTO) (*Session, error) {
	if s.opts.AdminSignupToken == "" {
		return nil, ErrSignupDisabled
	}
	given := dto.Token()
	if given == "" || subtle.ConstantTimeCompare([]byte(given), []byte(s.opts.AdminSignupToken)) != 1 {
		return nil, ErrWrongSignupToken
	}

	u, err := s.users.CreateAdmin(ctx, dto.ToCreateUser())
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin signed up", "user_id", u.ID)
	return s.session(u.Identity())
}

// Login checks the password and issues a session.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, internal.ErrInvalidCredentials
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if !user.VerifyPassword(u.PasswordHash, dto.Password) {
		return nil, internal.ErrInvalidCredentials
	}

	return s.session(u.Identity())
}

func (s *Service) session(id *internal.User) (*Session, error) {
	token, expiresAt, err := s.tokenGenerator.GenerateAccessToken(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}
	return &Session{
		User: id,
		Auth: AuthHint{
			Mode:        headerMode,
			HeaderName:  strings.ToLower(IdentityHeaderID),
			HeaderValue: id.ID,
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresAt:   expiresAt,
		},
	}, nil
}

// ResolveIdentity finds the caller. A bearer token wins; trusted headers come
// next; the dev fallback applies only when no hint was given at all.
func (s *Service) ResolveIdentity(ctx context.Context, c Credentials) (*internal.User, error) {
	if c.BearerToken != "" {
		claims, err := s.tokenGenerator.ValidateToken(c.BearerToken)
		if err != nil {
			return nil, err
		}
		return s.byID(ctx, claims.UserID)
	}

	if s.opts.TrustIdentityHeaders {
		if id := strings.TrimSpace(c.UserID); id != "" {
			return s.byID(ctx, id)
		}
		if email := user.NormalizeEmail(c.Email); email != "" {
			return s.lookup(s.users.GetByEmail(ctx, email))
		}
	}

	if s.opts.DevFallback {
		return s.lookup(s.users.Fallback(ctx))
	}
	return nil, internal.ErrNotAuthenticated
}

func (s *Service) byID(ctx context.Context, raw string) (*internal.User, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, internal.ErrNotAuthenticated
	}
	return s.lookup(s.users.GetByID(ctx, id))
}

func (s *Service) lookup(u *user.User, err error) (*internal.User, error) {
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, internal.ErrNotAuthenticated
		}
		return nil, internal.NewInternalError("failed to resolve identity", err)
	}
	return u.Identity(), nil
}
