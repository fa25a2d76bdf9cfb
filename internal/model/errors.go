package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already taken")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
)
