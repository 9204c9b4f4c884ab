package telephony

import (
	"context"
	"errors"
	"strings"
)

// Dialer places outbound voice-agent calls.
//
// Rules:
// - No provider HTTP calls outside telephony adapters.
// - Keep request/response types provider-agnostic; the raw provider
//   payload travels in Data.
type Dialer interface {
	PlaceOutboundCall(ctx context.Context, req OutboundCallRequest) (OutboundCallResult, error)
}

type OutboundCallRequest struct {
	// ToNumber is E.164 where possible.
	ToNumber string `json:"to_number"`
}

type OutboundCallResult struct {
	// OK is true when the provider answered 2xx.
	OK             bool `json:"success"`
	UpstreamStatus int  `json:"upstream_status"`
	// Data is the decoded provider body, or {"raw": text} when it is not JSON.
	Data any `json:"data"`
	// CallSID is the Twilio call id echoed by the provider, if any.
	CallSID string `json:"-"`
}

// ErrUpstream wraps transport failures talking to the provider.
var ErrUpstream = errors.New("telephony: upstream request failed")

// MissingConfigError lists the settings an outbound call needs but does not
// have.
type MissingConfigError struct {
	Missing []string
}

func (e *MissingConfigError) Error() string {
	return "telephony: missing required env vars: " + strings.Join(e.Missing, ", ")
}

// MaskSecret keeps the last four characters of s.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return "***" + s[len(s)-4:]
}
