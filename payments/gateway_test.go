package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACVerifierRoundTrip(t *testing.T) {
	v := &HMACVerifier{Secret: []byte("test-secret")}
	payload := []byte(`{"type":"payment.succeeded","payment_id":"p1"}`)

	sig := v.Sign(payload)
	require.NotEmpty(t, sig)
	assert.NoError(t, v.Verify(payload, sig))
}

func TestHMACVerifierRejectsTampering(t *testing.T) {
	v := &HMACVerifier{Secret: []byte("test-secret")}
	sig := v.Sign([]byte("original"))

	assert.ErrorIs(t, v.Verify([]byte("modified"), sig), ErrBadSignature)
	assert.ErrorIs(t, v.Verify([]byte("original"), ""), ErrBadSignature)

	other := &HMACVerifier{Secret: []byte("different-secret")}
	assert.ErrorIs(t, other.Verify([]byte("original"), sig), ErrBadSignature)
}
