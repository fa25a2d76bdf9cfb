package redis

import (
	"fmt"

	"github.com/mcoot/authsamples/internal/model"
)

// keys builds Redis keys under a common prefix
type keys struct {
	prefix string
}

func newKeys(prefix string) keys {
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	return keys{prefix: prefix}
}

// account returns the key holding an Account record
func (k keys) account(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%s", k.prefix, id)
}

// accountSeq returns the counter used to assign account IDs
func (k keys) accountSeq() string {
	return fmt.Sprintf("%s:seq:account", k.prefix)
}

// emailIndex returns the key of the normalized email -> account ID index.
// Written with SETNX, so it is the uniqueness guard for registrations.
func (k keys) emailIndex(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", k.prefix, model.NormalizeEmail(email))
}

// session returns the key holding a Session record
func (k keys) session(token string) string {
	return fmt.Sprintf("%s:session:%s", k.prefix, token)
}

// sessionExpiry returns the sorted set of session tokens scored by expiry
func (k keys) sessionExpiry() string {
	return fmt.Sprintf("%s:idx:session_expiry", k.prefix)
}
