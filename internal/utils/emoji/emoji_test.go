package emoji

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalCustomMarkup(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"static", "<:party:123456789012345678>", "123456789012345678"},
		{"animated", "<a:party:123456789012345678>", "123456789012345678"},
		{"name is irrelevant", "<:other_name:123456789012345678>", "123456789012345678"},
		{"api form", "party:123456789012345678", "123456789012345678"},
		{"animated api form", "a:party:123456789012345678", "123456789012345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Canonical(tt.token)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalUnicode(t *testing.T) {
	got, ok := Canonical("🎉")
	assert.True(t, ok)
	assert.Equal(t, "🎉", got)

	got, ok = Canonical("👍🏽")
	assert.True(t, ok)
	assert.Equal(t, "👍🏽", got)
}

func TestCanonicalMalformed(t *testing.T) {
	for _, token := range []string{
		"",
		"<:party:>",
		"<party:123>",
		"<a:party:123",
		":party:",
		"not:numeric:id",
	} {
		_, ok := Canonical(token)
		assert.False(t, ok, "token %q should be unresolved", token)
	}
}

func TestCanonicalBareID(t *testing.T) {
	// A bare numeric id has no markup characters and passes through as its
	// own canonical key, matching what custom markup resolves to.
	got, ok := Canonical("123456789012345678")
	assert.True(t, ok)
	assert.Equal(t, "123456789012345678", got)
}
