// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when attempting to create a user with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWeakPassword is returned by Signup when the password is too short.
	ErrWeakPassword = errors.New("password too short")

	// ErrInvalidRole is returned when assigning an unknown role.
	ErrInvalidRole = errors.New("invalid role")
)
