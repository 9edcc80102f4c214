package totp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/domain/entity"
)

func TestBackupCodeService_Generate(t *testing.T) {
	svc := NewBackupCodeService()

	plain, digests, err := svc.Generate()
	require.NoError(t, err)

	require.Len(t, plain, entity.BackupCodeCount)
	require.Len(t, digests, entity.BackupCodeCount)

	seen := make(map[string]bool)
	for i, code := range plain {
		assert.Regexp(t, `^[A-Z2-9]{5}-[A-Z2-9]{5}$`, code)
		assert.False(t, seen[code], "duplicate code generated")
		seen[code] = true

		// Digest must correspond to its plaintext.
		digest, ok := svc.Match(code, digests)
		require.True(t, ok)
		assert.Equal(t, digests[i], digest)
	}
}

func TestBackupCodeService_MatchNormalizesInput(t *testing.T) {
	svc := NewBackupCodeService()

	plain, digests, err := svc.Generate()
	require.NoError(t, err)

	code := plain[0]

	variants := []string{
		code,
		strings.ToLower(code),
		strings.ReplaceAll(code, "-", ""),
		"  " + code + "  ",
		strings.ReplaceAll(code, "-", " "),
	}
	for _, variant := range variants {
		digest, ok := svc.Match(variant, digests)
		assert.True(t, ok, "variant %q not matched", variant)
		assert.Equal(t, digests[0], digest)
	}
}

func TestBackupCodeService_MatchRejectsUnknown(t *testing.T) {
	svc := NewBackupCodeService()

	_, digests, err := svc.Generate()
	require.NoError(t, err)

	_, ok := svc.Match("AAAAA-AAAAA", digests)
	assert.False(t, ok)

	_, ok = svc.Match("", digests)
	assert.False(t, ok)

	_, ok = svc.Match("AAAAA-AAAAA", nil)
	assert.False(t, ok)
}
