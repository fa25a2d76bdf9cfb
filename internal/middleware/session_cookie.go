package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// SessionCookieName is the cookie holding the signed session token
const SessionCookieName = "session"

// ErrNoSessionCookie is returned when the request has no usable session cookie
var ErrNoSessionCookie = errors.New("no session cookie")

// SessionCookie signs session tokens into the session cookie and reads them back
type SessionCookie struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

// NewSessionCookie creates a codec signing with hashKey. An empty key gets a
// random one, which invalidates cookies across restarts.
func NewSessionCookie(hashKey []byte, maxAge time.Duration, secure bool) *SessionCookie {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(64)
	}
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(int(maxAge.Seconds()))

	return &SessionCookie{
		codec:  codec,
		maxAge: maxAge,
		secure: secure,
	}
}

// Write binds token to the client
func (c *SessionCookie) Write(w http.ResponseWriter, token string) error {
	encoded, err := c.codec.Encode(SessionCookieName, token)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the token from a valid signed cookie. Missing, tampered and
// stale cookies all return ErrNoSessionCookie.
func (c *SessionCookie) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSessionCookie
	}

	var token string
	if err := c.codec.Decode(SessionCookieName, cookie.Value, &token); err != nil {
		return "", ErrNoSessionCookie
	}
	return token, nil
}

// Clear removes the session cookie from the client
func (c *SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
