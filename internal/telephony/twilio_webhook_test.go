package telephony

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParseStatusCallback(t *testing.T) {
	body := strings.NewReader("CallSid=CA123&From=%2B15551234567&To=%2B15557654321&CallStatus=No-Answer&CallDuration=7")
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/status", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := ParseStatusCallback(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if form.CallSid != "CA123" {
		t.Fatalf("expected CallSid")
	}
	if form.From != "+15551234567" || form.To != "+15557654321" {
		t.Fatalf("unexpected from/to: %q %q", form.From, form.To)
	}
	if form.CallStatus != "no-answer" {
		t.Fatalf("expected lowercased status, got %q", form.CallStatus)
	}
	if form.CallDurationSec != 7 {
		t.Fatalf("expected duration 7, got %d", form.CallDurationSec)
	}
}

type recordingSink struct {
	sid, status string
	err         error
}

func (s *recordingSink) ApplyProviderStatus(_ context.Context, sid, status string) error {
	s.sid, s.status = sid, status
	return s.err
}

func statusRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/status", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestTwilioStatusHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sink := &recordingSink{}
	r := gin.New()
	r.POST("/webhooks/twilio/status", TwilioStatusHandler{Sink: sink}.HandleStatusCallback)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, statusRequest("CallSid=CA9&CallStatus=completed"))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if sink.sid != "CA9" || sink.status != "completed" {
		t.Fatalf("sink got %q %q", sink.sid, sink.status)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, statusRequest("CallStatus=completed"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without CallSid, got %d", w.Code)
	}

	sink.err = errors.New("db down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, statusRequest("CallSid=CA9&CallStatus=busy"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on sink failure, got %d", w.Code)
	}
}
