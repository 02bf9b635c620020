package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/httpx"
	"github.com/jdmdelivery/jdm/internal/i18n"
	"github.com/jdmdelivery/jdm/internal/middleware"
	"github.com/jdmdelivery/jdm/internal/models"
	"github.com/jdmdelivery/jdm/internal/policy"
	"github.com/jdmdelivery/jdm/internal/services"
)

type ClientHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewClientHandler(db *gorm.DB, audit *services.AuditService) *ClientHandler {
	return &ClientHandler{DB: db, Audit: audit}
}

// List: GET /clients – HTML or JSON, scoped to the collector's own rows.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	dbq := policy.Scope(h.DB.Model(&models.Client{}), user)
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(first_name) LIKE ? OR lower(last_name) LIKE ? OR document_id LIKE ? OR lower(route) LIKE ?",
			like, like, like, like)
	}
	var clients []models.Client
	if err := dbq.Order("first_name asc").Limit(200).Find(&clients).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_clients", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": len(clients)})
		return
	}
	renderTemplate(w, r, "clients", map[string]any{
		"User":    user,
		"Clients": clients,
		"Query":   q,
		"Flash":   middleware.PopFlash(w, r),
	})
}

// New: GET renders the form, POST creates the client.
func (h *ClientHandler) New(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "client_new", map[string]any{"User": user})
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
	first := strings.TrimSpace(r.FormValue("first_name"))
	if first == "" {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"first_name": "required"})
			return
		}
		renderTemplate(w, r, "client_new", map[string]any{
			"User":  user,
			"Error": i18n.T(middleware.LangFrom(r), "client.name"),
		})
		return
	}
	client := models.Client{
		FirstName:   first,
		LastName:    strings.TrimSpace(r.FormValue("last_name")),
		Phone:       strings.TrimSpace(r.FormValue("phone")),
		Address:     strings.TrimSpace(r.FormValue("address")),
		DocumentID:  strings.TrimSpace(r.FormValue("document_id")),
		Route:       strings.TrimSpace(r.FormValue("route")),
		CreatedByID: user.ID,
	}
	if err := h.DB.Create(&client).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_client", nil)
		return
	}
	h.Audit.Record(user.ID, "client.create", client.FullName())
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, client)
		return
	}
	middleware.Flash(w, r, "client.created")
	http.Redirect(w, r, "/clients", statusSeeOther)
}

// Detail: GET /clients/detail?id=... – the client with their loans.
func (h *ClientHandler) Detail(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id, ok := queryID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var client models.Client
	if err := h.DB.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_client", nil)
		return
	}
	if !policy.CanView(user, client) {
		h.denied(w, r)
		return
	}
	var loans []models.Loan
	h.DB.Where("client_id = ?", client.ID).Order("id desc").Find(&loans)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"client": client, "loans": loans})
		return
	}
	renderTemplate(w, r, "client_detail", map[string]any{
		"User":   user,
		"Client": client,
		"Loans":  loans,
		"Flash":  middleware.PopFlash(w, r),
	})
}

// Reassign: POST /clients/reassign – move one client to another collector.
// Supervisors and admins only.
func (h *ClientHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if !user.CanReassign() {
		h.denied(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	clientID, ok1 := formID(r, "client_id")
	targetID, ok2 := formID(r, "collector_id")
	if !ok1 || !ok2 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"client_id": "required", "collector_id": "required"})
		return
	}
	var target models.User
	if err := h.DB.First(&target, targetID).Error; err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "unknown_collector", nil)
		return
	}
	var client models.Client
	if err := h.DB.First(&client, clientID).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	// Moving a client moves their loans with them so route scoping stays consistent.
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Client{}).Where("id = ?", client.ID).Update("created_by_id", target.ID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Loan{}).Where("client_id = ?", client.ID).Update("created_by_id", target.ID).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_reassign", nil)
		return
	}
	h.Audit.Record(user.ID, "client.reassign", client.FullName()+" -> "+target.Username)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "reassigned"})
		return
	}
	middleware.Flash(w, r, "client.reassigned")
	http.Redirect(w, r, "/clients", statusSeeOther)
}

func (h *ClientHandler) denied(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	middleware.Flash(w, r, "denied")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
