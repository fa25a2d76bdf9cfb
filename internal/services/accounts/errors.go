package accounts

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateAccount matches any *DuplicateAccountError via errors.Is
	ErrDuplicateAccount = errors.New("account already exists")

	ErrInvalidCredentials = errors.New("invalid email or password")
)

// DuplicateAccountError reports a registration for an email that is already
// registered under any letter case
type DuplicateAccountError struct {
	Email string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("there is an account with that email address: %s", e.Email)
}

// Is lets errors.Is(err, ErrDuplicateAccount) match
func (e *DuplicateAccountError) Is(target error) bool {
	return target == ErrDuplicateAccount
}
