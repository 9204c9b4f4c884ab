package httpapi

import (
	"errors"
	"net/http"

	"careshare/internal/appointments"
	"careshare/internal/calls"
	"careshare/internal/conversations"
	"careshare/internal/geo"
	"careshare/internal/outreach"
	"careshare/internal/phone"
	"careshare/internal/seniors"
	"careshare/internal/telephony"
	"careshare/internal/volunteers"
)

const (
	CodeInvalidBody       = "INVALID_BODY"
	CodeInvalidPhone      = "INVALID_PHONE"
	CodeInvalidZip        = "INVALID_ZIP"
	CodeInvalidID         = "INVALID_ID"
	CodeNotFound          = "NOT_FOUND"
	CodeNoSkill           = "NO_SKILL"
	CodeNoSenior          = "NO_SENIOR"
	CodeAlreadyScheduled  = "ALREADY_SCHEDULED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeMissingEnv        = "MISSING_ENV"
	CodeUpstreamError     = "UPSTREAM_ERROR"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"
	CodeUnhandled         = "UNHANDLED_ERROR"
)

const msgInvalidBody = "Invalid request body"

// apiError is the resolved form of a domain error for both surfaces.
type apiError struct {
	Status  int
	Code    string
	Message string
	Details any
}

type errorRule struct {
	target  error
	status  int
	code    string
	message string
}

// errorTable maps domain sentinels to codes. The first match wins, so more
// specific errors come first.
var errorTable = []errorRule{
	{phone.ErrInvalidPhone, http.StatusBadRequest, CodeInvalidPhone, "Invalid phone number format."},
	{geo.ErrInvalidZip, http.StatusBadRequest, CodeInvalidZip, "Invalid zip provided"},
	{geo.ErrUnknownZip, http.StatusBadRequest, CodeInvalidZip, "Invalid zip provided"},
	{seniors.ErrNotFound, http.StatusNotFound, CodeNotFound, "Senior not found"},
	{volunteers.ErrNotFound, http.StatusNotFound, CodeNotFound, "Volunteer not found"},
	{conversations.ErrNotFound, http.StatusNotFound, CodeNotFound, "Conversation not found"},
	{appointments.ErrNotFound, http.StatusNotFound, CodeNotFound, "Appointment not found"},
	{conversations.ErrNoSenior, http.StatusBadRequest, CodeNoSenior, "Senior id is required to schedule"},
	{conversations.ErrAlreadyScheduled, http.StatusConflict, CodeAlreadyScheduled, "Conversation already has a scheduled appointment"},
	{appointments.ErrInvalidTransition, http.StatusConflict, CodeInvalidTransition, ""},
	{appointments.ErrInvalidStatus, http.StatusBadRequest, CodeInvalidBody, msgInvalidBody},
	{calls.ErrInvalidOutcome, http.StatusBadRequest, CodeInvalidBody, msgInvalidBody},
	{outreach.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited, "Too many calls in flight for this conversation"},
	{telephony.ErrUpstream, http.StatusBadGateway, CodeUpstreamError, ""},
}

// resolveError maps err through errorTable. Unknown errors become
// INTERNAL_ERROR.
func resolveError(err error) apiError {
	var bad *invalidBody
	if errors.As(err, &bad) {
		return apiError{Status: http.StatusBadRequest, Code: CodeInvalidBody, Message: msgInvalidBody, Details: bad.Issues}
	}
	var missing *telephony.MissingConfigError
	if errors.As(err, &missing) {
		return apiError{Status: http.StatusServiceUnavailable, Code: CodeMissingEnv, Message: "Missing required env vars", Details: missing.Missing}
	}
	for _, r := range errorTable {
		if errors.Is(err, r.target) {
			msg := r.message
			if msg == "" {
				msg = err.Error()
			}
			return apiError{Status: r.status, Code: r.code, Message: msg}
		}
	}
	return apiError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: err.Error()}
}
