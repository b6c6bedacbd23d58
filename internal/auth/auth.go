package auth

import (
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// IdentityHeaderID and IdentityHeaderEmail are the trusted identity headers.
	IdentityHeaderID    = "X-User-ID"
	IdentityHeaderEmail = "X-User-Email"

	headerMode = "header"
)

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenGenerator creates and validates signed access tokens.
type TokenGenerator interface {
	GenerateAccessToken(u *internal.User) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	Secret         []byte
	AccessTokenTTL time.Duration
}

// Credentials are the identity hints carried by a request.
type Credentials struct {
	BearerToken string
	UserID      string
	Email       string
}

// Session is returned by signup and login.
type Session struct {
	User *internal.User `json:"user"`
	Auth AuthHint       `json:"auth"`
}

// AuthHint tells clients how to identify on later calls: either the trusted
// header pair or the bearer token.
type AuthHint struct {
	Mode        string    `json:"mode"`
	HeaderName  string    `json:"headerName"`
	HeaderValue int64     `json:"headerValue"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

var (
	ErrSignupDisabled   = internal.NewInternalError("missing from env", nil)
	ErrWrongSignupToken = internal.NewForbiddenError("wrong token", internal.ErrCodeWrongSignupToken)
)
