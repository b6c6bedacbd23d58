package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/pkg/logger"
)

type ServiceAPI interface {
	Signup(ctx context.Context, dto SignupDTO) (*Session, error)
	Login(ctx context.Context, dto LoginDTO) (*Session, error)
	ResolveIdentity(ctx context.Context, c Credentials) (*internal.User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: base,
		Service:     svc,
	}
}

// Signup handles POST /api/auth/admin/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	internal.MarkStoreTouched(r.Context())

	var dto SignupDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	session, err := h.Service.Signup(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, session)
}

// SignupHint answers GET on the signup route.
func (h *Handler) SignupHint(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"message": "Use POST /api/auth/admin/signup with JSON body { name, email, password, adminSignupToken }",
	})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	internal.MarkStoreTouched(r.Context())

	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	session, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, session)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := internal.UserFromContext(r.Context())
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": u})
}

// AdminSecret handles GET /api/admin/secret.
func (h *Handler) AdminSecret(w http.ResponseWriter, r *http.Request) {
	u, _ := internal.UserFromContext(r.Context())
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Only admins can see this",
		"user":    u,
	})
}

// AuthMiddleware resolves the caller on every request and halts with 401
// when nobody can be identified.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := h.Service.ResolveIdentity(r.Context(), Credentials{
			BearerToken: h.ExtractTokenFromHeader(r),
			UserID:      r.Header.Get(IdentityHeaderID),
			Email:       r.Header.Get(IdentityHeaderEmail),
		})
		if err != nil {
			h.HandleError(w, r, err)
			return
		}

		ctx := internal.ContextWithUser(r.Context(), u)
		ctx = logger.With(ctx, "user_id", u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
