package random

import (
	"crypto/rand"
	"encoding/base64"
)

// Random provides random token generation that can be mocked for testing
type Random interface {
	// Token returns a URL-safe string encoding n random bytes
	Token(n int) (string, error)
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Token returns n bytes from crypto/rand, base64url encoded without padding
func (r *CryptoRandom) Token(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
