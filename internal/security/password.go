package security

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// BurnCompare spends the same bcrypt work as CheckPassword against a
// throwaway hash. Used when the account does not exist so a failed login
// takes as long either way.
func BurnCompare(plain string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("projecthub-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
}
