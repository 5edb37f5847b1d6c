// Package password wraps bcrypt hashing for tenant user credentials.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned when a password does not match its stored hash.
var ErrMismatch = errors.New("password mismatch")

// Hash derives a bcrypt hash from a plaintext password using the given cost.
// Pass 0 to use the bcrypt default.
func Hash(plaintext string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify compares a plaintext password against a stored bcrypt hash.
// Returns ErrMismatch on any failure so callers can't distinguish a wrong
// password from a corrupt hash.
func Verify(hash, plaintext string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		return ErrMismatch
	}
	return nil
}
