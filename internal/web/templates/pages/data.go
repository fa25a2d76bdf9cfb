package pages

import "github.com/mcoot/authsamples/internal/web/templates/layout"

// SignUpData holds the sign-up form state
type SignUpData struct {
	layout.PageData
	Email       string
	Error       string
	FieldErrors map[string]string
}

// SignInData holds the sign-in form state
type SignInData struct {
	layout.PageData
	Email string
	Error string
	Next  string // path to return to after signing in
}

// HomeData holds the signed-in landing page state
type HomeData struct {
	layout.PageData
	Email string
}

// ErrorData describes a failed request
type ErrorData struct {
	layout.PageData
	Status  int
	Message string
}
