package rest

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/auth"
	"github.com/frahmantamala/inventory-management/internal/dbaudit"
	"github.com/frahmantamala/inventory-management/internal/device"
	"github.com/frahmantamala/inventory-management/internal/importer"
	"github.com/frahmantamala/inventory-management/internal/item"
	"github.com/frahmantamala/inventory-management/internal/metrics"
	"github.com/frahmantamala/inventory-management/internal/purchase"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/internal/transport/middleware"
	"github.com/frahmantamala/inventory-management/internal/transport/swagger"
	"github.com/frahmantamala/inventory-management/internal/user"
	"github.com/go-chi/chi"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
)

const Banner = "InventoryGo API"

type Handlers struct {
	Auth     *auth.Handler
	User     *user.Handler
	Item     *item.Handler
	Purchase *purchase.Handler
	Device   *device.Handler
	Importer *importer.Handler
	Audit    *dbaudit.Handler
}

type Options struct {
	DB             *sql.DB
	Cache          *redis.Client
	AuditPublisher dbaudit.EventPublisher
	AllowedOrigins []string
	MetricsEnabled bool
	MetricsPath    string
	Base           *transport.BaseHandler
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, opts Options, h Handlers) {
	healthHandler := NewHealthHandler(opts.DB, opts.Cache)
	base := opts.Base
	if base == nil {
		base = transport.NewBaseHandler(opts.Logger)
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.HandleError(w, r, internal.NewNotFoundError(
			fmt.Sprintf("Not found: %s %s", r.Method, r.URL.RequestURI()), internal.ErrCodeRouteNotFound))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		base.HandleError(w, r, internal.NewMethodNotAllowedError(
			fmt.Sprintf("Method not allowed: %s %s", r.Method, r.URL.RequestURI())))
	})

	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.IdentityHeaderID, auth.IdentityHeaderEmail, middleware.TraceHeader},
		ExposedHeaders:   []string{middleware.TraceHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(metrics.Middleware)
	router.Use(dbaudit.Middleware(opts.AuditPublisher, opts.Logger))
	router.Use(middleware.LoggingMiddleware(opts.Logger))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		base.WriteJSON(w, http.StatusOK, map[string]string{"message": Banner})
	})

	router.Handle(swagger.SpecPath, swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())
	if opts.MetricsEnabled && opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)
	})

	a := h.Auth
	admin := a.RequireRoles(internal.RoleAdmin)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(ar chi.Router) {
			ar.Get("/admin/signup", a.SignupHint)
			ar.Post("/admin/signup", a.Signup)
			ar.Post("/login", a.Login)
			ar.With(a.AuthMiddleware).Get("/me", a.Me)
		})

		r.Route("/items", func(ir chi.Router) {
			ir.Get("/", h.Item.List)
			ir.Group(func(pr chi.Router) {
				pr.Use(a.AuthMiddleware)
				pr.With(a.RequireRoles(internal.RoleAdmin, internal.RolePurchase)).Post("/", h.Item.Create)
				pr.With(admin).Delete("/purge-nonfda", h.Item.PurgeNonFDA)
			})
		})

		r.Group(func(pr chi.Router) {
			pr.Use(a.AuthMiddleware)

			pr.Route("/admin", func(adm chi.Router) {
				adm.Use(admin)
				adm.Get("/secret", a.AdminSecret)
				adm.Get("/db-history", h.Audit.List)
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(admin)
				ur.Get("/", h.User.List)
				ur.Post("/", h.User.Create)
			})

			pr.Route("/requests", func(rr chi.Router) {
				rr.With(a.RequireRoles(internal.RolePurchase)).Post("/", h.Purchase.Create)
				rr.Get("/", h.Purchase.List)
				rr.Get("/{id}", h.Purchase.Get)
				rr.With(admin).Post("/{id}/approve", h.Purchase.Approve)
				rr.With(admin).Post("/{id}/reject", h.Purchase.Reject)
				rr.Get("/{id}/history", h.Purchase.History)
			})

			pr.Route("/import", func(imr chi.Router) {
				imr.Get("/openfda/devices", h.Importer.FetchDevices)
				imr.With(admin).Post("/openfda/devices", h.Importer.ImportDevices)
				imr.With(admin).Post("/openfda/items", h.Importer.ImportItems)
			})

			pr.Route("/devices", func(dr chi.Router) {
				dr.Get("/", h.Device.List)
				dr.Get("/{recordKey}", h.Device.Get)
			})
		})
	})
}
