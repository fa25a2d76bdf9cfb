package mocks

import (
	"fmt"

	"github.com/mcoot/authsamples/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	// TokenResults is a queue of results to return from Token
	TokenResults []string
	tokenIndex   int

	// Err, when set, is returned by every Token call
	Err error

	// fallback counter used once the queue is exhausted
	generated int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Token returns the next queued result. Once the queue is empty it returns
// "token-1", "token-2", ... so tests that don't care still get unique values.
func (r *MockRandom) Token(n int) (string, error) {
	if r.Err != nil {
		return "", r.Err
	}
	if r.tokenIndex < len(r.TokenResults) {
		result := r.TokenResults[r.tokenIndex]
		r.tokenIndex++
		return result, nil
	}
	r.generated++
	return fmt.Sprintf("token-%d", r.generated), nil
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.TokenResults = append(r.TokenResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.TokenResults = nil
	r.tokenIndex = 0
	r.generated = 0
	r.Err = nil
}
