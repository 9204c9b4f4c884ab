package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"careshare/internal/config"
	"careshare/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	outboundCallPath     = "/v1/convai/twilio/outbound-call"
	apiKeyHeader         = "xi-api-key"
	responsePreviewLimit = 2000
)

// ElevenLabsClient dials through the ConvAI Twilio integration.
type ElevenLabsClient struct {
	apiKey        string
	agentID       string
	phoneNumberID string
	baseURL       string

	http    *http.Client
	limiter *rate.Limiter
	tracer  trace.Tracer
}

// NewElevenLabsClient builds a client from config. hc may be nil.
// Missing credentials are reported per call, not here.
func NewElevenLabsClient(cfg config.ElevenLabsConfig, out config.OutboundConfig, hc *http.Client) *ElevenLabsClient {
	if hc == nil {
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if out.RatePerSecond > 0 {
		limit = rate.Limit(out.RatePerSecond)
	}
	burst := out.Burst
	if burst <= 0 {
		burst = 1
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = config.DefaultElevenLabsURL
	}

	return &ElevenLabsClient{
		apiKey:        cfg.APIKey,
		agentID:       cfg.AgentID,
		phoneNumberID: cfg.AgentPhoneNumberID,
		baseURL:       base,
		http:          hc,
		limiter:       rate.NewLimiter(limit, burst),
		tracer:        otel.Tracer("careshare/telephony"),
	}
}

// Missing returns the names of unset settings needed to place a call.
func (c *ElevenLabsClient) Missing() []string {
	var missing []string
	if c.apiKey == "" {
		missing = append(missing, "XI-API-KEY or XI_API_KEY or ELEVENLABS_API_KEY")
	}
	if c.agentID == "" {
		missing = append(missing, "ELEVENLABS_AGENT_ID")
	}
	if c.phoneNumberID == "" {
		missing = append(missing, "AGENT_PHONE_NUMBER_ID")
	}
	return missing
}

type outboundPayload struct {
	AgentID            string `json:"agent_id"`
	AgentPhoneNumberID string `json:"agent_phone_number_id"`
	ToNumber           string `json:"to_number"`
}

func (c *ElevenLabsClient) PlaceOutboundCall(ctx context.Context, req OutboundCallRequest) (OutboundCallResult, error) {
	if missing := c.Missing(); len(missing) > 0 {
		return OutboundCallResult{}, &MissingConfigError{Missing: missing}
	}
	log := logger.From(ctx)

	ctx, span := c.tracer.Start(ctx, "elevenlabs.outbound_call", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limiter")
		return OutboundCallResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	url := c.baseURL + outboundCallPath
	payload := outboundPayload{AgentID: c.agentID, AgentPhoneNumberID: c.phoneNumberID, ToNumber: req.ToNumber}
	body, err := json.Marshal(payload)
	if err != nil {
		return OutboundCallResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return OutboundCallResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	httpReq.Header.Set(apiKeyHeader, c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	log.Info("elevenlabs outbound call request",
		"url", url,
		"agent_id", payload.AgentID,
		"agent_phone_number_id", payload.AgentPhoneNumberID,
		"to_number", payload.ToNumber,
		"api_key", MaskSecret(c.apiKey),
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return OutboundCallResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return OutboundCallResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if !ok {
		span.SetStatus(codes.Error, resp.Status)
	}
	log.Info("elevenlabs outbound call response", "ok", ok, "status", resp.StatusCode, "body_preview", preview(raw))

	data, sid := decodeProviderBody(raw)
	return OutboundCallResult{OK: ok, UpstreamStatus: resp.StatusCode, Data: data, CallSID: sid}, nil
}

// decodeProviderBody parses JSON bodies and wraps anything else as
// {"raw": text}. The call SID comes from the callSid field when present.
func decodeProviderBody(raw []byte) (any, string) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return map[string]any{"raw": string(raw)}, ""
	}
	if m, ok := data.(map[string]any); ok {
		if sid, ok := m["callSid"].(string); ok {
			return data, sid
		}
	}
	return data, ""
}

func preview(raw []byte) string {
	if len(raw) > responsePreviewLimit {
		return string(raw[:responsePreviewLimit])
	}
	return string(raw)
}
