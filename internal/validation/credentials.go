package validation

import "strings"

// Credentials is the email/password pair submitted to sign up or sign in
type Credentials struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignInCredentials only requires both values to be present; length rules
// are not revealed to someone guessing passwords
type SignInCredentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Normalize trims surrounding whitespace from the email
func (c *Credentials) Normalize() {
	c.Email = strings.TrimSpace(c.Email)
}

// Normalize trims surrounding whitespace from the email
func (c *SignInCredentials) Normalize() {
	c.Email = strings.TrimSpace(c.Email)
}
