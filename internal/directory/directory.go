// Package directory resolves field and user references.
//
// Lifecycle services hold identifier-based weak references (a booking points
// at a field id, a match at an organizer id) and resolve them through this
// collaborator at read time instead of embedding object graphs.
package directory

import "context"

// Role describes what a user may do on the platform.
type Role int

const (
	// RoleUnspecified represents an invalid role value.
	RoleUnspecified Role = iota
	// RolePlayer indicates a regular player account.
	RolePlayer
	// RoleManager indicates a field manager account.
	RoleManager
)

// RoleLabel returns the string label for a role.
func RoleLabel(role Role) string {
	switch role {
	case RolePlayer:
		return "PLAYER"
	case RoleManager:
		return "MANAGER"
	default:
		return "UNSPECIFIED"
	}
}

// Field is a bookable sports field run by a manager.
type Field struct {
	ID        string
	Name      string
	Location  string
	ManagerID string
}

// User is a platform account referenced by bookings and matches.
type User struct {
	ID          string
	DisplayName string
	Role        Role
}

// Lookup resolves field and user references for validation and
// authorization checks.
type Lookup interface {
	GetField(ctx context.Context, fieldID string) (Field, error)
	GetManager(ctx context.Context, fieldID string) (string, error)
	GetUser(ctx context.Context, userID string) (User, error)
}
