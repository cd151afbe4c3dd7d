package domain

import (
	"strings"
	"time"
)

// Role is the access level attached to a user record.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole normalizes and validates a role string.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// User is the business-level record for a provisioned account. The ID is
// issued by the identity provider, never generated locally.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	CreatedTeams []Team
}

// Team is an owned reference to an external team aggregate. Only id and
// name are exposed through this service.
type Team struct {
	ID   string
	Name string
}
