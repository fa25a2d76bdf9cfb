package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrHashFailed wraps any failure to produce a password hash
var ErrHashFailed = errors.New("password hashing failed")

// Hasher turns raw passwords into stored hashes and checks them
type Hasher interface {
	Hash(raw string) (string, error)
	Verify(raw, hash string) bool
}

// Bcrypt hashes passwords with bcrypt at a fixed cost
type Bcrypt struct {
	cost int
}

// Ensure Bcrypt implements Hasher
var _ Hasher = (*Bcrypt)(nil)

// NewBcrypt creates a bcrypt hasher. A cost outside bcrypt's range falls back
// to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Cost returns the work factor used for new hashes
func (b *Bcrypt) Cost() int {
	return b.cost
}

func (b *Bcrypt) Hash(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), b.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHashFailed, err)
	}
	return string(hash), nil
}

func (b *Bcrypt) Verify(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
