package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign computes the hex HMAC-SHA256 of body under secret. The payment
// collaborator sends this value in the X-Signature header.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a received hex signature against the expected HMAC of body.
// Comparison is constant-time and case-insensitive.
func Verify(secret string, body []byte, receivedHex string) bool {
	received, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(receivedHex)))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), received)
}
