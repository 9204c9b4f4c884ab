package telephony

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// SignatureHeader carries the ElevenLabs webhook HMAC.
const SignatureHeader = "elevenlabs-signature"

var ErrInvalidSignature = errors.New("telephony: invalid webhook signature")

// Sign returns the header value for body: "sha256=" + hex HMAC-SHA256.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares header against the expected signature of body in
// constant time.
func VerifySignature(secret, header string, body []byte) error {
	if secret == "" || header == "" {
		return ErrInvalidSignature
	}
	if !hmac.Equal([]byte(header), []byte(Sign(secret, body))) {
		return ErrInvalidSignature
	}
	return nil
}
