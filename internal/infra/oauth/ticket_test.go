package oauth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/service"
)

func TestLinkTicketSigner_RoundTrip(t *testing.T) {
	signer, err := NewLinkTicketSigner("test-secret", 15*time.Minute)
	require.NoError(t, err)

	link := service.PendingLink{
		AccountID: uuid.New(),
		Provider:  entity.ProviderGoogle,
		Subject:   "google-sub-123",
		Email:     "agent@example.com",
		Name:      "Agent Example",
	}

	token, err := signer.Sign(link, time.Now())
	require.NoError(t, err)

	parsed, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, link, *parsed)
}

func TestLinkTicketSigner_RejectsExpired(t *testing.T) {
	signer, err := NewLinkTicketSigner("test-secret", 15*time.Minute)
	require.NoError(t, err)

	token, err := signer.Sign(service.PendingLink{
		AccountID: uuid.New(),
		Provider:  entity.ProviderGoogle,
		Subject:   "google-sub-123",
	}, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, domainerrors.ErrOAuthStateInvalid)
}

func TestLinkTicketSigner_RejectsForeignSignature(t *testing.T) {
	signer, err := NewLinkTicketSigner("test-secret", 15*time.Minute)
	require.NoError(t, err)
	other, err := NewLinkTicketSigner("other-secret", 15*time.Minute)
	require.NoError(t, err)

	token, err := other.Sign(service.PendingLink{
		AccountID: uuid.New(),
		Provider:  entity.ProviderMicrosoft,
		Subject:   "ms-sub-456",
	}, time.Now())
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, domainerrors.ErrOAuthStateInvalid)
}

func TestLinkTicketSigner_RejectsGarbage(t *testing.T) {
	signer, err := NewLinkTicketSigner("test-secret", 15*time.Minute)
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := signer.Verify(token)
		assert.ErrorIs(t, err, domainerrors.ErrOAuthStateInvalid)
	}
}

func TestNewLinkTicketSigner_RequiresSecret(t *testing.T) {
	_, err := NewLinkTicketSigner("", 15*time.Minute)
	assert.Error(t, err)
}
