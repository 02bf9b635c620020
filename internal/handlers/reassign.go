package handlers

import (
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/httpx"
	"github.com/jdmdelivery/jdm/internal/middleware"
	"github.com/jdmdelivery/jdm/internal/models"
	"github.com/jdmdelivery/jdm/internal/services"
)

// ReassignHandler moves an entire route from one collector to another, for
// example when a collector leaves and their book is handed over.
type ReassignHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewReassignHandler(db *gorm.DB, audit *services.AuditService) *ReassignHandler {
	return &ReassignHandler{DB: db, Audit: audit}
}

// Bulk: GET renders the form, POST moves every client and loan of the source
// collector to the target.
func (h *ReassignHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if !user.CanReassign() {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
			return
		}
		middleware.Flash(w, r, "denied")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		var collectors []models.User
		h.DB.Where("role = ?", models.RoleCollector).Order("username asc").Find(&collectors)
		renderTemplate(w, r, "reassign", map[string]any{
			"User":       user,
			"Collectors": collectors,
			"Flash":      middleware.PopFlash(w, r),
		})
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	fromID, ok1 := formID(r, "from_id")
	toID, ok2 := formID(r, "to_id")
	if !ok1 || !ok2 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"from_id": "required", "to_id": "required"})
		return
	}
	if fromID == toID {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "same_collector", nil)
			return
		}
		middleware.Flash(w, r, "reassign.same")
		http.Redirect(w, r, "/reassign", statusSeeOther)
		return
	}
	var from, to models.User
	if err := h.DB.First(&from, fromID).Error; err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "unknown_collector", nil)
		return
	}
	if err := h.DB.First(&to, toID).Error; err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "unknown_collector", nil)
		return
	}

	var moved int64
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Client{}).Where("created_by_id = ?", from.ID).Update("created_by_id", to.ID)
		if res.Error != nil {
			return res.Error
		}
		moved = res.RowsAffected
		return tx.Model(&models.Loan{}).Where("created_by_id = ?", from.ID).Update("created_by_id", to.ID).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_reassign", nil)
		return
	}
	h.Audit.Record(user.ID, "route.reassign", fmt.Sprintf("%s -> %s (%d clients)", from.Username, to.Username, moved))
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "reassigned", "clients": moved})
		return
	}
	middleware.Flash(w, r, "reassign.done")
	http.Redirect(w, r, "/reassign", statusSeeOther)
}
