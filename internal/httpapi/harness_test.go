package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"careshare/internal/appointments"
	"careshare/internal/audit"
	"careshare/internal/calls"
	"careshare/internal/conversations"
	"careshare/internal/geo"
	"careshare/internal/httpapi"
	"careshare/internal/matching"
	"careshare/internal/outreach"
	"careshare/internal/personalization"
	"careshare/internal/phone"
	"careshare/internal/reporting"
	"careshare/internal/seniors"
	"careshare/internal/skills"
	"careshare/internal/store/memory"
	"careshare/internal/telephony"
	"careshare/internal/volunteers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testNumber = "+15164770955"

func ptr[T any](v T) *T { return &v }

type fakeDialer struct {
	dialed []string
	result telephony.OutboundCallResult
	err    error
}

func (d *fakeDialer) PlaceOutboundCall(_ context.Context, req telephony.OutboundCallRequest) (telephony.OutboundCallResult, error) {
	d.dialed = append(d.dialed, req.ToNumber)
	return d.result, d.err
}

type env struct {
	store  *memory.Store
	dialer *fakeDialer
	router *gin.Engine

	senior seniors.Senior
	david  volunteers.Volunteer
	maria  volunteers.Volunteer
}

type option func(*httpapi.Handlers, *httpapi.Guards)

func withWebhook(cfg httpapi.WebhookConfig) option {
	return func(h *httpapi.Handlers, _ *httpapi.Guards) { h.Webhook = cfg }
}

func withGuards(g httpapi.Guards) option {
	return func(_ *httpapi.Handlers, dst *httpapi.Guards) { *dst = g }
}

func newEnv(t *testing.T, opts ...option) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	e := &env{
		store: store,
		dialer: &fakeDialer{result: telephony.OutboundCallResult{
			OK: true, UpstreamStatus: http.StatusOK, Data: map[string]any{"callSid": "CA100"}, CallSID: "CA100",
		}},
	}
	e.senior = store.AddSenior(seniors.Senior{
		FirstName:   "Arthur",
		LastName:    "Pendragon",
		PhoneNumber: testNumber,
		ZipCode:     ptr("90210"),
		IsActive:    true,
	})
	e.david = store.AddVolunteer(volunteers.Volunteer{FirstName: "David", LastName: "Chen", PhoneNumber: "+19085550100", ZipCode: "90211", IsActive: true}, skills.Gardening, skills.Companionship)
	e.maria = store.AddVolunteer(volunteers.Volunteer{FirstName: "Maria", LastName: "Garcia", PhoneNumber: "+12125550100", ZipCode: "10002", IsActive: true}, skills.Driving, skills.GroceryShopping, skills.TechHelp)

	phones := phone.NewNormalizer("US")
	dir := geo.NewMemoryDirectory(geo.DemoPoints...)
	auditSvc := audit.NewService(store)
	matcher := skills.NewWordMatcher()
	prompts, err := personalization.LoadPrompts("")
	require.NoError(t, err)

	h := httpapi.Handlers{
		Seniors:      seniors.NewService(store, phones, auditSvc),
		Volunteers:   volunteers.NewService(store, dir),
		Appointments: appointments.NewService(store, store, store, appointments.NewRules("strict"), auditSvc),
		Conversations: conversations.NewService(conversations.Deps{
			Repo:       store,
			Seniors:    store,
			Volunteers: store,
			Phones:     phones,
			Skills:     matcher,
			Matching:   matching.NewEngine(store, dir),
			Audit:      auditSvc,
		}),
		CallLog:  calls.NewService(store),
		Outreach: outreach.NewService(store, store, store, e.dialer, nil, testNumber),
		Personalizer: &personalization.Service{
			Phones:        phones,
			Seniors:       store,
			Conversations: store,
			Volunteers:    store,
			Prompts:       prompts,
			Timezone:      "America/New_York",
			Now:           func() time.Time { return time.Date(2025, 10, 7, 9, 0, 0, 0, time.UTC) },
		},
		Reporting: reporting.NewService(store),
		Skills:    matcher,
		DB:        store,
	}
	var g httpapi.Guards
	for _, o := range opts {
		o(&h, &g)
	}

	e.router = httpapi.NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Register(e.router, g)
	return e
}

func (e *env) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	case []byte:
		r = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []any {
	t.Helper()
	var out []any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// errorCode returns the envelope error code, or "" for a success envelope.
func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	if body["success"] == true {
		return ""
	}
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected an error envelope, got %v", body)
	code, _ := e["code"].(string)
	return code
}

func errorMessage(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	msg, _ := e["message"].(string)
	return msg
}
