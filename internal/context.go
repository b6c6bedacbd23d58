package internal

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
)

type ctxKey string

const (
	ContextUserKey         ctxKey = "user"
	ContextRequestStateKey ctxKey = "requestState"
)

// Role is the coarse capability a user holds.
type Role string

const (
	RoleAdmin    Role = "admin"
	RolePurchase Role = "purchase"

	roleLegacyConsumer Role = "consumer"
)

// NormalizeRole maps stored or submitted role values onto the supported set.
// The retired consumer role and anything unrecognised become purchase.
func NormalizeRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RolePurchase, roleLegacyConsumer:
		return RolePurchase
	default:
		return RolePurchase
	}
}

// RoleSet is the set of roles a route accepts.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Allows(r Role) bool {
	_, ok := s[r]
	return ok
}

// User is the resolved caller attached to a request.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok && u != nil
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	if state := RequestStateFromContext(ctx); state != nil {
		state.SetActor(u)
	}
	return context.WithValue(ctx, ContextUserKey, u)
}

// RequestState is shared by reference between the outer audit middleware and
// everything it wraps, so values written downstream are visible after the
// handler returns.
type RequestState struct {
	touched atomic.Bool
	actor   atomic.Pointer[User]
}

func ContextWithRequestState(ctx context.Context) (context.Context, *RequestState) {
	state := &RequestState{}
	return context.WithValue(ctx, ContextRequestStateKey, state), state
}

func RequestStateFromContext(ctx context.Context) *RequestState {
	if ctx == nil {
		return nil
	}
	state, _ := ctx.Value(ContextRequestStateKey).(*RequestState)
	return state
}

// MarkStoreTouched flags the current request for the persistent audit trail.
func MarkStoreTouched(ctx context.Context) {
	if state := RequestStateFromContext(ctx); state != nil {
		state.touched.Store(true)
	}
}

func (s *RequestState) Touched() bool {
	return s.touched.Load()
}

func (s *RequestState) SetActor(u *User) {
	s.actor.Store(u)
}

func (s *RequestState) Actor() *User {
	return s.actor.Load()
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
