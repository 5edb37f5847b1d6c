package accesstoken_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearspace-io/tenantry/pkg/accesstoken"
)

func TestNewSecret(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 10 {
		secret, err := accesstoken.NewSecret()
		require.NoError(t, err)
		assert.Len(t, secret, 40)
		assert.Regexp(t, `^[a-zA-Z0-9]+$`, secret)
		assert.False(t, seen[secret], "secrets must not repeat")
		seen[secret] = true
	}
}

func TestHashSecret(t *testing.T) {
	t.Parallel()

	sum := sha256.Sum256([]byte("s3cret"))
	want := hex.EncodeToString(sum[:])

	assert.Equal(t, want, accesstoken.HashSecret("s3cret"))
	assert.Equal(t, accesstoken.HashSecret("s3cret"), accesstoken.HashSecret("s3cret"))
	assert.NotEqual(t, accesstoken.HashSecret("s3cret"), accesstoken.HashSecret("other"))
}

func TestParseCredential(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		tokenID := uuid.New()
		plaintext := accesstoken.Plaintext(tokenID, "secretpart")

		id, secret, err := accesstoken.ParseCredential(plaintext)
		require.NoError(t, err)
		assert.Equal(t, tokenID.String(), id)
		assert.Equal(t, "secretpart", secret)
	})

	t.Run("secret may itself contain the separator", func(t *testing.T) {
		t.Parallel()

		_, secret, err := accesstoken.ParseCredential("id|se|cret")
		require.NoError(t, err)
		assert.Equal(t, "se|cret", secret)
	})

	malformed := map[string]string{
		"empty":          "",
		"no separator":   "justonepart",
		"empty id":       "|secret",
		"empty secret":   "id|",
		"separator only": "|",
	}
	for name, raw := range malformed {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, _, err := accesstoken.ParseCredential(raw)
			assert.ErrorIs(t, err, accesstoken.ErrMalformedCredential)
		})
	}
}
