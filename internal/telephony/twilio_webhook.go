package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// TwilioStatusForm captures the subset of status callback fields we care
// about. Twilio sends application/x-www-form-urlencoded by default.
// Ref: https://www.twilio.com/docs/voice/api/call-resource#statuscallback
//
// Keep it minimal and provider-adapter-only.
type TwilioStatusForm struct {
	CallSid         string
	AccountSid      string
	From            string
	To              string
	Direction       string
	CallStatus      string
	CallDurationSec int
}

func ParseStatusCallback(r *http.Request) (TwilioStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioStatusForm{}, err
	}
	f := TwilioStatusForm{
		CallSid:    strings.TrimSpace(r.PostFormValue("CallSid")),
		AccountSid: r.PostFormValue("AccountSid"),
		From:       normalizePhone(r.PostFormValue("From")),
		To:         normalizePhone(r.PostFormValue("To")),
		Direction:  r.PostFormValue("Direction"),
		CallStatus: strings.ToLower(strings.TrimSpace(r.PostFormValue("CallStatus"))),
	}
	if d := strings.TrimSpace(r.PostFormValue("CallDuration")); d != "" {
		if n, err := strconv.Atoi(d); err == nil {
			f.CallDurationSec = n
		}
	}
	return f, nil
}

func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return s
}
