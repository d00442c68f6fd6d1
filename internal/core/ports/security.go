package ports

import "time"

// PasswordHasher hashes and verifies credentials with a salted slow hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer issues and verifies signed, time-bounded session tokens.
type TokenIssuer interface {
	Issue(accountID string) (string, time.Time, error)
	Verify(token string) (accountID string, err error)
}
