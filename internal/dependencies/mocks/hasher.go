package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mcoot/authsamples/internal/services/password"
)

// MockHasher is a fast, reversible Hasher for tests
type MockHasher struct {
	mu sync.Mutex

	// Err, when set, makes Hash fail with an error wrapping password.ErrHashFailed
	Err error

	// HashCalls counts Hash invocations
	HashCalls int
}

// Ensure MockHasher implements Hasher
var _ password.Hasher = (*MockHasher)(nil)

// NewMockHasher creates a new MockHasher
func NewMockHasher() *MockHasher {
	return &MockHasher{}
}

const mockHashPrefix = "hashed:"

func (h *MockHasher) Hash(raw string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.HashCalls++
	if h.Err != nil {
		return "", fmt.Errorf("%w: %w", password.ErrHashFailed, h.Err)
	}
	return mockHashPrefix + raw, nil
}

func (h *MockHasher) Verify(raw, hash string) bool {
	return strings.HasPrefix(hash, mockHashPrefix) && strings.TrimPrefix(hash, mockHashPrefix) == raw
}
