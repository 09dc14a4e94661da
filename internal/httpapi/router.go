package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gtnulled/despensa_api/internal/telemetry"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type App struct {
	ServiceName string
	Health      *HealthHandler
	Auth        *AuthHandler
	Users       *UsersHandler
	Items       *ItemsHandler
	Withdrawals *WithdrawalsHandler
	Reports     *ReportsHandler

	Authenticator Authenticator
	AuthOptions   AuthOptions
}

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	serviceName := app.ServiceName
	if serviceName == "" {
		serviceName = "despensa-api"
	}
	r.Use(telemetry.ChiTraceMiddleware(serviceName))
	r.Use(telemetry.ChiMetricsMiddleware)
	r.Use(telemetry.ChiLogMiddleware(serviceName))

	r.Get("/health", app.Health.Get)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	authMW := AuthMiddleware(app.Authenticator, app.AuthOptions)

	r.Route("/v1", func(r chi.Router) {

		// Auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.Auth.SignUp)
			r.Post("/login", app.Auth.Login)
			r.Post("/logout", app.Auth.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authMW)

			// Self endpoints
			r.Get("/me", app.Users.Me)

			// Admin endpoints
			r.Get("/", app.Users.List)
			r.Post("/{id}/approve", app.Users.Approve)
			r.Post("/{id}/toggle-admin", app.Users.ToggleAdmin)
			r.Delete("/{id}", app.Users.Reject)
		})

		r.Route("/items", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/", app.Items.List)
			r.Post("/", app.Items.Create)
			r.Post("/{id}/request-removal", app.Items.RequestRemoval)
			r.Post("/{id}/withdraw", app.Items.Withdraw)
			r.Delete("/{id}", app.Items.Delete)
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/", app.Withdrawals.List)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/monthly", app.Reports.Monthly)
			r.Get("/monthly/export", app.Reports.Export)
			r.Get("/stats", app.Reports.Stats)
		})

	})
	return r
}
