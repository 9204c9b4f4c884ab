// Package phone normalizes caller-supplied phone numbers to E.164.
package phone

import (
	"errors"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// Normalizer parses numbers with libphonenumber metadata and falls back to
// plain digit rules for inputs the library refuses.
type Normalizer struct {
	// DefaultRegion is the ISO 3166 region used for numbers without a
	// country code.
	DefaultRegion string
}

func NewNormalizer(defaultRegion string) Normalizer {
	if defaultRegion == "" {
		defaultRegion = "US"
	}
	return Normalizer{DefaultRegion: strings.ToUpper(defaultRegion)}
}

// Normalize returns raw in E.164 form or ErrInvalidPhone.
func (n Normalizer) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidPhone
	}
	region := n.DefaultRegion
	if region == "" {
		region = "US"
	}

	num, err := phonenumbers.Parse(raw, region)
	if err == nil {
		if !phonenumbers.IsValidNumber(num) {
			return "", ErrInvalidPhone
		}
		return phonenumbers.Format(num, phonenumbers.E164), nil
	}
	return fallback(raw)
}

// fallback applies the North American digit rules used before the library
// is consulted successfully.
func fallback(raw string) (string, error) {
	digits := onlyDigits(raw)
	switch {
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, nil
	case len(digits) == 10:
		return "+1" + digits, nil
	case strings.HasPrefix(raw, "+") && len(digits) >= 8 && len(digits) <= 15:
		return "+" + digits, nil
	default:
		return "", ErrInvalidPhone
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
