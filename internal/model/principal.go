package model

import "time"

// RoleUser is the single role granted to every signed-in account
const RoleUser = "USER"

// Principal is the identity of an authenticated account within a session
type Principal struct {
	AccountID AccountID
	Email     string
	Roles     []string
}

// PrincipalFor builds the principal for an account
func PrincipalFor(account *Account) Principal {
	return Principal{
		AccountID: account.ID,
		Email:     account.Email,
		Roles:     []string{RoleUser},
	}
}

// HasRole reports whether the principal was granted the role
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Session binds a principal to a client-presentable token
type Session struct {
	Token     string
	Principal Principal
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at the given time
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
