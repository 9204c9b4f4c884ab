package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"careshare/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *ElevenLabsClient {
	return NewElevenLabsClient(config.ElevenLabsConfig{
		APIKey:             "sk-test-abcd",
		AgentID:            "agent-1",
		AgentPhoneNumberID: "phone-1",
		BaseURL:            baseURL,
	}, config.OutboundConfig{RatePerSecond: 100, Burst: 10}, nil)
}

func TestPlaceOutboundCall_SendsPayload(t *testing.T) {
	var got outboundPayload
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, outboundCallPath, r.URL.Path)
		key = r.Header.Get(apiKeyHeader)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"callSid":"CA42"}`))
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).PlaceOutboundCall(context.Background(), OutboundCallRequest{ToNumber: "+15551230000"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, http.StatusOK, res.UpstreamStatus)
	assert.Equal(t, "CA42", res.CallSID)
	assert.Equal(t, "sk-test-abcd", key)
	assert.Equal(t, outboundPayload{AgentID: "agent-1", AgentPhoneNumberID: "phone-1", ToNumber: "+15551230000"}, got)
}

func TestPlaceOutboundCall_NonJSONFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).PlaceOutboundCall(context.Background(), OutboundCallRequest{ToNumber: "+15551230000"})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusBadGateway, res.UpstreamStatus)
	assert.Equal(t, map[string]any{"raw": "upstream exploded"}, res.Data)
}

func TestPlaceOutboundCall_MissingConfig(t *testing.T) {
	c := NewElevenLabsClient(config.ElevenLabsConfig{AgentID: "agent-1"}, config.OutboundConfig{}, nil)

	_, err := c.PlaceOutboundCall(context.Background(), OutboundCallRequest{ToNumber: "+15551230000"})
	var missing *MissingConfigError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"XI-API-KEY or XI_API_KEY or ELEVENLABS_API_KEY", "AGENT_PHONE_NUMBER_ID"}, missing.Missing)
}

func TestPlaceOutboundCall_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testClient(url).PlaceOutboundCall(context.Background(), OutboundCallRequest{ToNumber: "+15551230000"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "***abcd", MaskSecret("sk-abcd"))
	assert.Equal(t, "***", MaskSecret("abc"))
}
