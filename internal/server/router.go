package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/auth"
	"github.com/jdmdelivery/jdm/internal/handlers"
	"github.com/jdmdelivery/jdm/internal/httpx"
	"github.com/jdmdelivery/jdm/internal/middleware"
	"github.com/jdmdelivery/jdm/internal/models"
	"github.com/jdmdelivery/jdm/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, limiter middleware.LoginLimiter) http.Handler {
	mux := http.NewServeMux()

	// RequireAuth double-checks that the session user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	audit := services.NewAuditService(db)
	loanSvc := services.NewLoanService(db)

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, werr := w.Write([]byte(`{"status":"degraded"}`)); werr != nil {
				_ = werr
			}
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	ah := handlers.NewAuthHandler(db, audit)
	mux.Handle("/login", auth.Middleware(middleware.LimitLogin(limiter, http.HandlerFunc(ah.Login))))
	mux.Handle("/logout", auth.Middleware(http.HandlerFunc(ah.Logout)))
	mux.HandleFunc("/toggle-theme", middleware.ToggleTheme)

	protect := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}

	// Dashboard
	dh := handlers.NewDashboardHandler(db)
	mux.Handle("/dashboard", protect(dh.Show))

	// Clients
	ch := handlers.NewClientHandler(db, audit)
	mux.Handle("/clients", protect(ch.List))
	mux.Handle("/clients/new", protect(ch.New))
	mux.Handle("/clients/detail", protect(ch.Detail))
	mux.Handle("/clients/reassign", protect(ch.Reassign))

	// Route handover
	rh := handlers.NewReassignHandler(db, audit)
	mux.Handle("/reassign", protect(rh.Bulk))

	// Loans
	lh := handlers.NewLoanHandler(db, loanSvc, audit)
	mux.Handle("/loans", protect(lh.List))
	mux.Handle("/loans/new", protect(lh.New))
	mux.Handle("/loans/detail", protect(lh.Detail))

	// Payments
	ph := handlers.NewPaymentHandler(db, loanSvc, audit)
	mux.Handle("/payments/new", protect(ph.New))

	// Cash reports
	eh := handlers.NewExpenseHandler(db, audit)
	mux.Handle("/expenses", protect(eh.List))

	// Audit trail
	alh := handlers.NewAuditLogHandler(db)
	mux.Handle("/audit", protect(alh.List))

	// Root redirects to the dashboard; RequireAuth bounces anonymous users to /login.
	mux.Handle("/", auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})))

	return middleware.Prefs(withRecover(withLogging(mux)))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
