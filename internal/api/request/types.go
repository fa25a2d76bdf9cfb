package request

import "github.com/mcoot/authsamples/internal/validation"

// RegisterRequest is the request body for creating an account
type RegisterRequest = validation.Credentials

// LoginRequest is the request body for starting a session
type LoginRequest = validation.SignInCredentials
