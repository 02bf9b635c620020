package handlers

import (
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/httpx"
	"github.com/jdmdelivery/jdm/internal/middleware"
	"github.com/jdmdelivery/jdm/internal/models"
	"github.com/jdmdelivery/jdm/internal/policy"
	"github.com/jdmdelivery/jdm/internal/services"
)

// ExpenseHandler covers route cash reports: gas, lunch, cash handed to the
// office. Collectors see their own entries, admins see everyone's.
type ExpenseHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewExpenseHandler(db *gorm.DB, audit *services.AuditService) *ExpenseHandler {
	return &ExpenseHandler{DB: db, Audit: audit}
}

// List: GET lists recent entries, POST creates one.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodPost {
		h.create(w, r, user)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var reports []models.CashReport
	if err := policy.ScopeByUserID(h.DB.Preload("User"), user).Order("id desc").Limit(200).Find(&reports).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_reports", nil)
		return
	}
	var total float64
	policy.ScopeByUserID(h.DB.Model(&models.CashReport{}), user).Select("COALESCE(SUM(amount), 0)").Scan(&total)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": reports, "total_amount": total})
		return
	}
	renderTemplate(w, r, "expenses", map[string]any{
		"User":    user,
		"Reports": reports,
		"Total":   total,
		"Flash":   middleware.PopFlash(w, r),
	})
}

func (h *ExpenseHandler) create(w http.ResponseWriter, r *http.Request, user models.User) {
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	amount := formFloat(r, "amount", 0)
	if amount <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"amount": "must_be_positive"})
		return
	}
	date := time.Now()
	if v := r.FormValue("date"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			date = d
		}
	}
	report := models.CashReport{
		UserID: user.ID,
		Date:   date,
		Amount: amount,
		Note:   r.FormValue("note"),
	}
	if err := h.DB.Create(&report).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_report", nil)
		return
	}
	h.Audit.Record(user.ID, "expense.create", fmt.Sprintf("amount %.2f", amount))
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, report)
		return
	}
	middleware.Flash(w, r, "expense.saved")
	http.Redirect(w, r, "/expenses", statusSeeOther)
}
