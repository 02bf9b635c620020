package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/engine"
	"github.com/jdmdelivery/jdm/internal/httpx"
	"github.com/jdmdelivery/jdm/internal/middleware"
	"github.com/jdmdelivery/jdm/internal/models"
	"github.com/jdmdelivery/jdm/internal/policy"
)

type DashboardHandler struct{ DB *gorm.DB }

func NewDashboardHandler(db *gorm.DB) *DashboardHandler { return &DashboardHandler{DB: db} }

// Show: GET /dashboard – role-scoped counters and the latest loans.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	var clientCount, loanCount, activeCount int64
	policy.Scope(h.DB.Model(&models.Client{}), user).Count(&clientCount)
	policy.Scope(h.DB.Model(&models.Loan{}), user).Count(&loanCount)
	policy.Scope(h.DB.Model(&models.Loan{}), user).
		Where("status = ?", string(engine.StatusActive)).Count(&activeCount)

	// Capital on the street: outstanding principal across active loans.
	var capital float64
	policy.Scope(h.DB.Model(&models.Loan{}), user).
		Where("status = ?", string(engine.StatusActive)).
		Select("COALESCE(SUM(remaining), 0)").Scan(&capital)

	var recent []models.Loan
	policy.Scope(h.DB.Preload("Client"), user).Order("id desc").Limit(10).Find(&recent)

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"clients":      clientCount,
			"loans":        loanCount,
			"active_loans": activeCount,
			"capital":      capital,
		})
		return
	}
	renderTemplate(w, r, "dashboard", map[string]any{
		"User":        user,
		"ClientCount": clientCount,
		"LoanCount":   loanCount,
		"ActiveCount": activeCount,
		"Capital":     capital,
		"Recent":      recent,
		"Flash":       middleware.PopFlash(w, r),
	})
}
