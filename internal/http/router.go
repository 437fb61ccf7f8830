package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/RaniyaAK/arts/internal/http/admin"
	"github.com/RaniyaAK/arts/internal/http/auth"
	"github.com/RaniyaAK/arts/internal/http/commission"
	"github.com/RaniyaAK/arts/internal/http/export"
	"github.com/RaniyaAK/arts/internal/http/middleware"
	"github.com/RaniyaAK/arts/internal/http/notification"
	"github.com/RaniyaAK/arts/internal/http/payment"
	"github.com/RaniyaAK/arts/internal/http/transaction"
	"github.com/RaniyaAK/arts/internal/identity"
)

type Handlers struct {
	Auth          *auth.Handler
	Commissions   *commission.Handler
	Payments      *payment.Handler
	Transactions  *transaction.Handler
	Export        *export.Handler
	Notifications *notification.Handler
	Admin         *admin.Handler
}

func New(h Handlers, tokens middleware.TokenParser, allowedOrigins []string, logger zerolog.Logger) http.Handler {
	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			h.Auth.Routes(r)
		})

		r.Route("/payments", h.Payments.ReturnRoutes)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(tokens))

			r.Get("/me", h.Auth.Me)

			r.Route("/commissions", func(r chi.Router) {
				h.Commissions.Routes(r)
				r.Route("/{id}/payments", h.Payments.Routes)
			})

			r.Route("/transactions", func(r chi.Router) {
				h.Export.Routes(r)
				h.Transactions.Routes(r)
			})

			r.Route("/notifications", h.Notifications.Routes)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(identity.RoleAdmin))
				h.Admin.Routes(r)
			})
		})
	})

	return router
}
