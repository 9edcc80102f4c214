package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/config"
	domainerrors "atrium/internal/domain/errors"
)

func testPolicy() config.PasswordStrengthConfig {
	return config.PasswordStrengthConfig{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
		RequireSpecial:   true,
		MaxLength:        128,
	}
}

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	hasher := NewBcryptHasher(4, testPolicy())

	hash, err := hasher.Hash("Sup3r!Secret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3r!Secret", hash)

	assert.True(t, hasher.Check("Sup3r!Secret", hash))
	assert.False(t, hasher.Check("Sup3r!Wrong", hash))
}

func TestBcryptHasher_HashIsSalted(t *testing.T) {
	hasher := NewBcryptHasher(4, testPolicy())

	first, err := hasher.Hash("Sup3r!Secret")
	require.NoError(t, err)
	second, err := hasher.Hash("Sup3r!Secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasher_ValidateStrength(t *testing.T) {
	hasher := NewBcryptHasher(4, testPolicy())

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "Sup3r!Secret", wantErr: false},
		{name: "too short", password: "S3c!r", wantErr: true},
		{name: "missing uppercase", password: "sup3r!secret", wantErr: true},
		{name: "missing lowercase", password: "SUP3R!SECRET", wantErr: true},
		{name: "missing number", password: "Super!Secret", wantErr: true},
		{name: "missing special", password: "Sup3rSecret1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hasher.ValidateStrength(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
