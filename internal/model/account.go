package model

import (
	"strings"
	"time"
)

// AccountID uniquely identifies an account. Assigned by the storage backend on save.
type AccountID string

// Account is an email-keyed user record with a hashed credential
type Account struct {
	ID           AccountID
	Email        string // as submitted; unique case-insensitively
	PasswordHash string // bcrypt hash, never the raw password
	CreatedAt    time.Time
}

// NormalizeEmail returns the key used for case-insensitive email comparison
func NormalizeEmail(email string) string {
	return strings.ToLower(email)
}

// NormalizedEmail returns the account's email in its comparison form
func (a *Account) NormalizedEmail() string {
	return NormalizeEmail(a.Email)
}
