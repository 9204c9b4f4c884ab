package telephony

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"caller_id":"+15551230000"}`)
	sig := Sign("s3cret", body)

	assert.NoError(t, VerifySignature("s3cret", sig, body))
	assert.ErrorIs(t, VerifySignature("s3cret", sig, []byte(`{}`)), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("other", sig, body), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("s3cret", "", body), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("", sig, body), ErrInvalidSignature)
}

func TestNopSlotsNeverLimit(t *testing.T) {
	var s SlotLimiter = NopSlots{}
	for i := 0; i < 5; i++ {
		ok, err := s.Acquire(t.Context(), 1)
		assert.NoError(t, err)
		assert.True(t, ok)
	}
	assert.NoError(t, s.Release(t.Context(), 1))
	assert.Equal(t, "careshare:outbound:slots:12", slotKey(12))
}
