package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverySignatureRoundTrip(t *testing.T) {
	GenerateSecretKey()

	payload := DeliveryPayload{DeliveryID: "delivery-1", UserID: "alice", PuzzleID: 42}
	signature, err := GenerateDeliverySignature(payload)
	require.NoError(t, err)
	require.NotEmpty(t, signature)

	assert.True(t, ValidateDeliverySignature(payload, signature))
}

func TestDeliverySignatureRejectsTampering(t *testing.T) {
	GenerateSecretKey()

	payload := DeliveryPayload{DeliveryID: "delivery-1", UserID: "alice", PuzzleID: 42}
	signature, err := GenerateDeliverySignature(payload)
	require.NoError(t, err)

	// 换用户
	tampered := payload
	tampered.UserID = "mallory"
	assert.False(t, ValidateDeliverySignature(tampered, signature))

	// 换谜题
	tampered = payload
	tampered.PuzzleID = 43
	assert.False(t, ValidateDeliverySignature(tampered, signature))

	// 签名本身被篡改
	assert.False(t, ValidateDeliverySignature(payload, "bm90LWEtc2lnbmF0dXJl"))
	assert.False(t, ValidateDeliverySignature(payload, "!!!"))
}

func TestSignatureInvalidAfterKeyRotation(t *testing.T) {
	GenerateSecretKey()
	payload := DeliveryPayload{DeliveryID: "delivery-1", UserID: "alice", PuzzleID: 1}
	signature, err := GenerateDeliverySignature(payload)
	require.NoError(t, err)

	// 重启（换密钥）后旧签名全部失效
	GenerateSecretKey()
	assert.False(t, ValidateDeliverySignature(payload, signature))
}
