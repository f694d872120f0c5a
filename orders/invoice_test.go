package orders

import (
	"strings"
	"testing"

	"boutique/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoicePayloadRoundTrip(t *testing.T) {
	payload := InvoiceQRPayload("o42", models.OrderConfirmed)

	parts := strings.Split(payload, "|")
	require.Len(t, parts, 4)
	assert.Equal(t, "o42", parts[0])
	assert.Equal(t, models.OrderConfirmed, parts[1])

	assert.True(t, VerifyInvoicePayload(payload))
}

func TestInvoicePayloadTamperDetected(t *testing.T) {
	payload := InvoiceQRPayload("o42", models.OrderConfirmed)
	tampered := strings.Replace(payload, "o42", "o43", 1)
	assert.False(t, VerifyInvoicePayload(tampered))
	assert.False(t, VerifyInvoicePayload("no-pipes-here"))
	assert.False(t, VerifyInvoicePayload(""))
}
