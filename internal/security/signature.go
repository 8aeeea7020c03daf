package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HeaderPaymentSignature carries the hex HMAC-SHA256 of the webhook body.
const HeaderPaymentSignature = "X-Payment-Signature"

func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayload accepts the signature with or without a "sha256=" prefix.
func VerifyPayload(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	expected := SignPayload(secret, body)
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}
