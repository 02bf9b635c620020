package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/auth"
	"github.com/jdmdelivery/jdm/internal/httpx"
	"github.com/jdmdelivery/jdm/internal/i18n"
	"github.com/jdmdelivery/jdm/internal/middleware"
	"github.com/jdmdelivery/jdm/internal/models"
	"github.com/jdmdelivery/jdm/internal/services"
)

type AuthHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewAuthHandler(db *gorm.DB, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{DB: db, Audit: audit}
}

// Login: GET renders the form, POST checks credentials.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		// Already signed in and the account still exists: go straight in.
		if uid, ok := auth.UserIDFromContext(r.Context()); ok && uid != 0 {
			var count int64
			if err := h.DB.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err == nil && count > 0 {
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
				return
			}
			auth.ClearSession(w)
		}
		renderTemplate(w, r, "login", map[string]any{"Flash": middleware.PopFlash(w, r), "Username": ""})
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
	username := strings.TrimSpace(r.FormValue("username"))
	pass := r.FormValue("password")
	if username == "" || pass == "" {
		h.loginFailed(w, r, username)
		return
	}
	var user models.User
	if err := h.DB.Where("username = ?", username).First(&user).Error; err != nil {
		h.loginFailed(w, r, username)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(pass)) != nil {
		h.loginFailed(w, r, username)
		return
	}
	auth.CreateSession(w, user.ID)
	h.Audit.Record(user.ID, "login", "user "+user.Username)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID, "username": user.Username, "role": user.Role})
		return
	}
	http.Redirect(w, r, "/dashboard", statusSeeOther)
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, username string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	renderTemplate(w, r, "login", map[string]any{
		"Error":    i18n.T(middleware.LangFrom(r), "login.invalid"),
		"Username": username,
	})
}

// Logout: POST only.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if uid, ok := auth.UserIDFromContext(r.Context()); ok {
		h.Audit.Record(uid, "logout", "")
	}
	auth.ClearSession(w)
	middleware.Flash(w, r, "logout.done")
	http.Redirect(w, r, "/login", statusSeeOther)
}
