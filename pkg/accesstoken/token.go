package accesstoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Token is a stored access token. Value holds the hex SHA-256 hash of the
// secret; the plaintext secret is returned once at issue time and never
// persisted.
type Token struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Label     string
	Hash      string
	CreatedAt time.Time
}

const secretLength = 40

const secretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewSecret generates a random alphanumeric token secret.
func NewSecret() (string, error) {
	buf := make([]byte, secretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = secretAlphabet[int(b)%len(secretAlphabet)]
	}
	return string(buf), nil
}

// HashSecret returns the hex-encoded SHA-256 hash of a token secret. This is
// the only form in which secrets are stored or compared.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Plaintext formats the one-time credential handed to the client.
func Plaintext(id uuid.UUID, secret string) string {
	return id.String() + "|" + secret
}

// ParseCredential splits a bearer credential into its id and secret parts.
// The id part is advisory (lookup is by secret hash alone); the credential is
// rejected when either part is empty or the separator is missing.
func ParseCredential(raw string) (id, secret string, err error) {
	parts := strings.SplitN(raw, "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrMalformedCredential
	}
	return parts[0], parts[1], nil
}
