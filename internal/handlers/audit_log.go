package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/httpx"
	"github.com/jdmdelivery/jdm/internal/middleware"
	"github.com/jdmdelivery/jdm/internal/models"
)

type AuditLogHandler struct{ DB *gorm.DB }

func NewAuditLogHandler(db *gorm.DB) *AuditLogHandler { return &AuditLogHandler{DB: db} }

// List: GET /audit – admin only, newest first.
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if !user.IsAdmin() {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
			return
		}
		middleware.Flash(w, r, "denied")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	var entries []models.AuditLog
	if err := h.DB.Order("id desc").Limit(200).Find(&entries).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_audit", nil)
		return
	}
	// Resolve usernames in one pass instead of preloading per row.
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	names := map[uint]string{}
	if len(ids) > 0 {
		var users []models.User
		h.DB.Where("id IN ?", ids).Find(&users)
		for _, u := range users {
			names[u.ID] = u.Username
		}
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": entries})
		return
	}
	renderTemplate(w, r, "audit", map[string]any{
		"User":    user,
		"Entries": entries,
		"Names":   names,
	})
}
