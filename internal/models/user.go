package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the closed set of roles known to the editorial workflow.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleEditor   UserRole = "EDITOR"
	RoleReviewer UserRole = "REVIEWER"
	RoleAuthor   UserRole = "AUTHOR"
)

// Valid reports whether the role belongs to the known set.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleReviewer, RoleAuthor:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	FullName     string         `db:"full_name" json:"full_name"`
	Affiliation  string         `db:"affiliation" json:"affiliation,omitempty"`
	Roles        pq.StringArray `db:"roles" json:"roles"`
	Active       bool           `db:"active" json:"active"`
	LastLogin    *time.Time     `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// RoleList converts the stored roles into typed values, dropping unknown entries.
func (u *User) RoleList() []UserRole {
	if u == nil {
		return nil
	}
	roles := make([]UserRole, 0, len(u.Roles))
	for _, raw := range u.Roles {
		if role := UserRole(raw); role.Valid() {
			roles = append(roles, role)
		}
	}
	return roles
}

// HasRole reports whether the user carries role.
func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.RoleList() {
		if r == role {
			return true
		}
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
