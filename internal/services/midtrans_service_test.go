package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyMidtransSignature(t *testing.T) {
	orderID := "donation-42-1700000000"
	statusCode := "200"
	grossAmount := "150000.00"
	serverKey := "test-server-key"
	// sha512(order_id + status_code + gross_amount + server_key)
	validSignature := "404e19962bf6e4defa09c73f36e24698199b6c7d0f0e0b62b72c63851c9ac828ea3cc2b85b51cb81dbe80b7faa2b1bc533fd968e3b46ecb782e9ca9090519dec"

	assert.True(t, VerifyMidtransSignature(orderID, statusCode, grossAmount, serverKey, validSignature))
	assert.False(t, VerifyMidtransSignature(orderID, statusCode, grossAmount, "other-key", validSignature))
	assert.False(t, VerifyMidtransSignature(orderID, statusCode, grossAmount, serverKey, "deadbeef"))
	assert.False(t, VerifyMidtransSignature("donation-43-1700000000", statusCode, grossAmount, serverKey, validSignature))
}
