// Package policy decides which rows a staff member may see or touch. Role
// checks take the acting user explicitly; nothing here reads ambient session
// state.
package policy

import (
	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/models"
)

// Ownable is implemented by models that track the collector who created them.
type Ownable interface {
	GetUserID() uint
}

// CanView reports whether user may see the resource. Collectors only see
// their own rows; every other role sees everything.
func CanView(user models.User, resource Ownable) bool {
	if !user.IsCollector() {
		return true
	}
	if resource == nil {
		return false
	}
	return resource.GetUserID() == user.ID
}

// Scope narrows a query to the rows visible to user. Admins and supervisors
// get the query unchanged.
func Scope(q *gorm.DB, user models.User) *gorm.DB {
	if user.IsCollector() {
		return q.Where("created_by_id = ?", user.ID)
	}
	return q
}

// ScopeByUserID narrows tables keyed by user_id (cash reports) the same way,
// except admins see everyone's rows.
func ScopeByUserID(q *gorm.DB, user models.User) *gorm.DB {
	if user.IsAdmin() {
		return q
	}
	return q.Where("user_id = ?", user.ID)
}
