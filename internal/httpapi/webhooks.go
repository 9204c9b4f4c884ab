package httpapi

import (
	"net/http"

	"careshare/internal/personalization"
	"careshare/internal/telephony"
	"careshare/pkg/logger"

	"github.com/gin-gonic/gin"
)

type personalizationRequest struct {
	CallerID       string   `json:"caller_id"`
	AgentID        string   `json:"agent_id"`
	CalledNumber   string   `json:"called_number"`
	CallSID        string   `json:"call_sid"`
	Mode           string   `json:"mode" validate:"omitempty,mode"`
	ConversationID *flexInt `json:"conversation_id"`
	VolunteerID    *flexInt `json:"volunteer_id"`
}

// Personalization answers the voice agent's call-start webhook with the
// prompt override for this call.
func (h Handlers) Personalization(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		agentError(c, &invalidBody{Issues: []fieldIssue{{Rule: "read", Message: err.Error()}}})
		return
	}
	if !h.signatureOK(c, raw) {
		agentFail(c, http.StatusUnauthorized, CodeInvalidSignature, "Invalid webhook signature", nil)
		return
	}

	var req personalizationRequest
	if err := decodeBody(raw, &req); err != nil {
		agentError(c, err)
		return
	}
	resp, err := h.Personalizer.Personalize(c.Request.Context(), personalization.Request{
		CallerID:       req.CallerID,
		AgentID:        req.AgentID,
		CalledNumber:   req.CalledNumber,
		CallSID:        req.CallSID,
		Mode:           personalization.Mode(req.Mode),
		ConversationID: req.ConversationID.ptr(),
		VolunteerID:    req.VolunteerID.ptr(),
	})
	if err != nil {
		agentError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// signatureOK checks the HMAC when a secret and a header are both present.
// RequireSignature also rejects a missing header.
func (h Handlers) signatureOK(c *gin.Context, body []byte) bool {
	header := c.GetHeader(telephony.SignatureHeader)
	if !h.Webhook.RequireSignature && (h.Webhook.Secret == "" || header == "") {
		return true
	}
	if err := telephony.VerifySignature(h.Webhook.Secret, header, body); err != nil {
		logger.FromGin(c).Warn("personalization signature rejected", "err", err)
		return false
	}
	return true
}

// TwilioStatus receives Twilio call status callbacks.
func (h Handlers) TwilioStatus(c *gin.Context) {
	var sink telephony.StatusSink
	if h.Outreach != nil {
		sink = h.Outreach
	}
	telephony.TwilioStatusHandler{Sink: sink}.HandleStatusCallback(c)
}
