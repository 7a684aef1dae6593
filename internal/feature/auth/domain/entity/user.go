// Package entity defines the domain entities for the auth feature.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the authorization role carried in the JWT.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a registered user in the system.
// It contains authentication credentials and the cash balance used for trading.
type User struct {
	// ID is the unique identifier (UUID) for the user.
	ID string

	// Email is the user's email address used for authentication.
	// It must be unique across all users.
	Email string

	// Password is the bcrypt hash of the user's password.
	// This should never store plaintext passwords.
	Password string

	Role Role

	// Balance is the cash available for buying stocks.
	// It is written only by order settlement after signup.
	Balance decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}
