package telephony

import (
	"context"
	"net/http"

	"careshare/pkg/logger"

	"github.com/gin-gonic/gin"
)

// StatusSink applies a provider call status to the stored call log.
type StatusSink interface {
	ApplyProviderStatus(ctx context.Context, callSID, status string) error
}

// TwilioStatusHandler converts the Twilio status callback to internal types
// and delegates to the sink.
//
// No business logic here.
type TwilioStatusHandler struct {
	Sink StatusSink
}

func (h TwilioStatusHandler) HandleStatusCallback(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Sink == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status sink not configured"})
		return
	}

	form, err := ParseStatusCallback(c.Request)
	if err != nil {
		log.Warn("twilio status callback parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid is required"})
		return
	}

	if err := h.Sink.ApplyProviderStatus(c.Request.Context(), form.CallSid, form.CallStatus); err != nil {
		log.Error("apply provider status failed", "call_sid", form.CallSid, "status", form.CallStatus, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status update failed"})
		return
	}
	log.Info("twilio status callback", "call_sid", form.CallSid, "status", form.CallStatus, "duration_sec", form.CallDurationSec)
	c.Status(http.StatusNoContent)
}
