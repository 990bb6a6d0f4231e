// Package router mounts every HTTP endpoint on a chi router.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskcoin/backend/internal/auth"
	"github.com/taskcoin/backend/internal/dashboard"
	"github.com/taskcoin/backend/internal/handlers"
	"github.com/taskcoin/backend/internal/metrics"
	"github.com/taskcoin/backend/internal/middleware"
	"github.com/taskcoin/backend/internal/models"
)

type Deps struct {
	Auth        *auth.Handler
	Tasks       *handlers.TaskHandler
	Submissions *handlers.SubmissionHandler
	Withdrawals *handlers.WithdrawalHandler
	Reports     *handlers.ReportHandler
	Payments    *handlers.PaymentHandler
	Users       *handlers.UserHandler
	Dashboard   *dashboard.Handler

	// Authenticate resolves the bearer token to the request account.
	Authenticate   func(http.Handler) http.Handler
	RequestTimeout time.Duration
}

var (
	workerOnly = middleware.RequireRole(models.RoleWorker)
	buyerOnly  = middleware.RequireRole(models.RoleBuyer)
	adminOnly  = middleware.RequireRole(models.RoleAdmin)
)

// New returns an http.Handler that serves the API under /api/v1 plus /health and /metrics.
func New(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(chimw.Timeout(timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", d.Auth.Register)
		r.Post("/auth/login", d.Auth.Login)

		r.Route("/users", func(r chi.Router) {
			r.Get("/top-workers", d.Dashboard.TopWorkers)

			r.Group(func(r chi.Router) {
				r.Use(d.Authenticate, adminOnly)
				r.Get("/", d.Users.List)
				r.Patch("/{id}/role", d.Users.UpdateRole)
				r.Delete("/{id}", d.Users.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(d.Authenticate)

			r.Get("/auth/me", d.Auth.Me)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", d.Tasks.ListAvailable)
				r.With(buyerOnly).Post("/", d.Tasks.CreateTask)
				r.With(buyerOnly).Get("/buyer/mine", d.Tasks.ListMine)
				r.With(adminOnly).Get("/admin/all", d.Tasks.ListAll)
				r.Get("/{id}", d.Tasks.GetTask)
				r.With(buyerOnly).Patch("/{id}", d.Tasks.EditTask)
				r.With(middleware.RequireRole(models.RoleBuyer, models.RoleAdmin)).Delete("/{id}", d.Tasks.DeleteTask)
			})

			r.Route("/submissions", func(r chi.Router) {
				r.With(workerOnly).Post("/", d.Submissions.Create)
				r.With(workerOnly).Get("/worker/mine", d.Submissions.ListMine)
				r.With(workerOnly).Get("/worker/approved", d.Submissions.ListApproved)
				r.With(buyerOnly).Get("/buyer/pending", d.Submissions.ListPendingForBuyer)
				r.With(buyerOnly).Post("/{id}/approve", d.Submissions.Approve)
				r.With(buyerOnly).Post("/{id}/reject", d.Submissions.Reject)
			})

			r.Route("/reports", func(r chi.Router) {
				r.With(buyerOnly).Post("/", d.Reports.File)
				r.With(adminOnly).Get("/", d.Reports.List)
				r.With(adminOnly).Post("/{id}/resolve", d.Reports.Resolve)
			})

			r.Route("/withdrawals", func(r chi.Router) {
				r.With(workerOnly).Post("/", d.Withdrawals.Request)
				r.With(workerOnly).Get("/worker/mine", d.Withdrawals.ListMine)
				r.With(adminOnly).Get("/admin/pending", d.Withdrawals.ListPending)
				r.With(adminOnly).Post("/{id}/approve", d.Withdrawals.Approve)
				r.With(adminOnly).Post("/{id}/reject", d.Withdrawals.Reject)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Get("/packages", d.Payments.Packages)
				r.With(buyerOnly).Post("/confirm", d.Payments.Confirm)
				r.With(buyerOnly).Get("/history", d.Payments.History)
			})

			r.With(adminOnly).Get("/admin/audit", d.Users.Audit)

			r.With(adminOnly).Get("/stats/admin", d.Dashboard.AdminStats)
			r.With(buyerOnly).Get("/stats/buyer", d.Dashboard.BuyerStats)
			r.With(workerOnly).Get("/stats/worker", d.Dashboard.WorkerStats)
			r.Get("/notifications", d.Dashboard.Notifications)
			r.Get("/ledger", d.Dashboard.Ledger)
		})
	})

	return r
}
