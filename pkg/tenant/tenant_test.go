package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearspace-io/tenantry/pkg/tenant"
)

func TestValidateID(t *testing.T) {
	t.Parallel()

	valid := []string{"acme", "acme-corp", "a", "42", "a1-b2-c3"}
	for _, id := range valid {
		assert.NoError(t, tenant.ValidateID(id), id)
	}

	invalid := map[string]string{
		"empty":            "",
		"uppercase":        "Acme",
		"leading dash":     "-acme",
		"underscore":       "acme_corp",
		"dot":              "acme.corp",
		"space":            "acme corp",
		"slash":            "acme/corp",
		"sql injection":    `acme"; DROP DATABASE postgres; --`,
		"too long":         "a123456789012345678901234567890123456789012345678901234567890123",
		"unicode":          "acmé",
		"percent encoding": "acme%2f",
	}
	for name, id := range invalid {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tenant.ValidateID(id), tenant.ErrInvalidIdentifier)
		})
	}
}

func TestActive(t *testing.T) {
	t.Parallel()

	assert.True(t, (&tenant.Tenant{Status: tenant.StatusActive}).Active())
	assert.False(t, (&tenant.Tenant{Status: tenant.StatusProvisioning}).Active())
	assert.False(t, (&tenant.Tenant{Status: tenant.StatusFailed}).Active())
}

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithTenant(context.Background(), activeTenant("acme"))

		got, ok := tenant.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "acme", got.ID)

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "acme", id)
	})

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()

		_, ok := tenant.FromContext(context.Background())
		assert.False(t, ok)
		_, ok = tenant.IDFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("must panics without tenant", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			tenant.MustFromContext(context.Background())
		})
	})

	t.Run("logger extractor", func(t *testing.T) {
		t.Parallel()

		extract := tenant.LoggerExtractor()

		attr, ok := extract(tenant.WithTenant(context.Background(), activeTenant("acme")))
		require.True(t, ok)
		assert.Equal(t, "tenant_id", attr.Key)
		assert.Equal(t, "acme", attr.Value.String())

		_, ok = extract(context.Background())
		assert.False(t, ok)
	})
}
