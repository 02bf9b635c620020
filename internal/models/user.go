package models

import "time"

// Staff roles. Collectors only see rows they created; supervisors see
// everything but cannot reach admin-only screens.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleCollector  = "collector"
)

type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"unique;not null;index"`
	Password  string `gorm:"not null"` // bcrypt hash
	Role      string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) IsAdmin() bool     { return u.Role == RoleAdmin }
func (u User) IsCollector() bool { return u.Role == RoleCollector }

// CanReassign reports whether the user may move clients between collectors.
func (u User) CanReassign() bool {
	return u.Role == RoleAdmin || u.Role == RoleSupervisor
}
