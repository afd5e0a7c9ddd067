package shared

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIKeyRoundTrip(t *testing.T) {
	hash, err := HashAPIKey("sk_test_kinia_123")
	require.NoError(t, err)

	v := NewAPIKeyVerifier(hash)
	require.NoError(t, v.Verify("sk_test_kinia_123"))
	require.ErrorIs(t, v.Verify("sk_test_kinia_124"), ErrInvalidAPIKey)
	require.ErrorIs(t, v.Verify(""), ErrInvalidAPIKey)
}

func TestAPIKeyLongerThanBcryptLimit(t *testing.T) {
	// bcrypt truncates inputs beyond 72 bytes; the SHA-256 prehash keeps
	// longer keys distinct.
	long := strings.Repeat("a", 80)
	hash, err := HashAPIKey(long)
	require.NoError(t, err)

	v := NewAPIKeyVerifier(hash)
	require.NoError(t, v.Verify(long))
	require.ErrorIs(t, v.Verify(strings.Repeat("a", 81)), ErrInvalidAPIKey)
}

func TestAPIKeyVerifierEmptyHash(t *testing.T) {
	v := NewAPIKeyVerifier("")
	require.ErrorIs(t, v.Verify("anything"), ErrInvalidAPIKey)

	var nilVerifier *APIKeyVerifier
	require.ErrorIs(t, nilVerifier.Verify("anything"), ErrInvalidAPIKey)
}
