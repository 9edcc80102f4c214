package securetoken

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_Issue(t *testing.T) {
	codec := NewCodec()

	raw, digest, err := codec.Issue()
	require.NoError(t, err)

	assert.Len(t, raw, 64)
	assert.Len(t, digest, 64)
	assert.NotEqual(t, raw, digest)

	// Raw token must be lowercase hex.
	assert.Equal(t, strings.ToLower(raw), raw)
}

func TestCodec_IssueIsUnique(t *testing.T) {
	codec := NewCodec()

	seen := make(map[string]bool)
	for range 100 {
		raw, _, err := codec.Issue()
		require.NoError(t, err)
		require.False(t, seen[raw], "token issued twice")
		seen[raw] = true
	}
}

func TestCodec_DigestRejectsMalformed(t *testing.T) {
	codec := NewCodec()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "too short", raw: "abc123"},
		{name: "too long", raw: strings.Repeat("a", 65)},
		{name: "not hex", raw: strings.Repeat("z", 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Digest(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestCodec_DigestIsDeterministic(t *testing.T) {
	codec := NewCodec()

	raw, digest, err := codec.Issue()
	require.NoError(t, err)

	recomputed, err := codec.Digest(raw)
	require.NoError(t, err)
	assert.Equal(t, digest, recomputed)
}

func TestCodec_Verify(t *testing.T) {
	codec := NewCodec()

	raw, digest, err := codec.Issue()
	require.NoError(t, err)

	assert.True(t, codec.Verify(raw, digest))

	other, _, err := codec.Issue()
	require.NoError(t, err)
	assert.False(t, codec.Verify(other, digest))
	assert.False(t, codec.Verify("not-a-token", digest))
}
