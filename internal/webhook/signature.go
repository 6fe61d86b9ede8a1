package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader is the header Up sends the webhook signature in.
const SignatureHeader = "X-Up-Authenticity-Signature"

// Signature computes the hex-encoded HMAC-SHA256 of body under secret, the
// scheme Up signs webhook deliveries with.
func Signature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether header is a valid signature for body.
// The comparison is constant-time.
func VerifySignature(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}
	expected := Signature(secret, body)
	return hmac.Equal([]byte(expected), []byte(header))
}
