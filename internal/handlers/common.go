package handlers

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/auth"
	"github.com/jdmdelivery/jdm/internal/models"
	"github.com/jdmdelivery/jdm/internal/view"
)

// Explicit constant for 303 See Other (Post/Redirect/Get)
const statusSeeOther = 303

// renderTemplate uses the shared view.Render to ensure layout, funcs, and caching.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name+".html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("template error")); werr != nil {
			_ = werr
		}
	}
}

// currentUser loads the session user. The second return is false when the
// session is missing or points at a deleted account.
func currentUser(db *gorm.DB, r *http.Request) (models.User, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		return models.User{}, false
	}
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		return models.User{}, false
	}
	return user, true
}

// queryID parses a positive integer id from the query string.
func queryID(r *http.Request, key string) (uint, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return uint(n), true
}

// formID parses a positive integer id from a form field.
func formID(r *http.Request, key string) (uint, bool) {
	n, err := strconv.Atoi(r.FormValue(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return uint(n), true
}

// formFloat parses a float form field, returning def when absent.
func formFloat(r *http.Request, key string, def float64) float64 {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
