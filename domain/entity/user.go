package entity

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleAffiliate Role = "AFFILIATE"
)

type UserStatus string

const (
	StatusPending   UserStatus = "PENDING"
	StatusActive    UserStatus = "ACTIVE"
	StatusInactive  UserStatus = "INACTIVE"
	StatusSuspended UserStatus = "SUSPENDED"
)

// UserStatuses lists every status in display order.
var UserStatuses = []UserStatus{StatusPending, StatusActive, StatusInactive, StatusSuspended}

// ParseUserStatus accepts only the exact upper-case status names.
func ParseUserStatus(value string) (UserStatus, bool) {
	for _, s := range UserStatuses {
		if string(s) == value {
			return s, true
		}
	}
	return "", false
}

// UserStatusNames returns the valid status values as strings.
func UserStatusNames() []string {
	names := make([]string, 0, len(UserStatuses))
	for _, s := range UserStatuses {
		names = append(names, string(s))
	}
	return names
}

// ResolveRequestedRole maps a self-registration role request to a stored role.
// Only the exact marker "ADMIN" grants RoleAdmin; anything else, including
// other casings or surrounding whitespace, yields RoleAffiliate.
func ResolveRequestedRole(requested string) Role {
	if requested == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleAffiliate
}

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      Role       `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewUser builds a freshly registered user. Email is normalized and the
// initial status is always PENDING.
func NewUser(id, email, name string, role Role, now time.Time) *User {
	return &User{
		ID:        id,
		Email:     NormalizeEmail(email),
		Name:      strings.TrimSpace(name),
		Role:      role,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail is the canonical storage form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) HasRole(roles ...Role) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// CanSignIn reports whether the account may start a new session.
func (u *User) CanSignIn() bool {
	return u.Status != StatusInactive && u.Status != StatusSuspended
}

// LandingRoute is where a freshly signed-in client should navigate.
func (u *User) LandingRoute() string {
	if u.IsAdmin() {
		return "/admin"
	}
	return "/affiliate"
}
