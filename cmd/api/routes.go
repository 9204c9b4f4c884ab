package main

import (
	"log/slog"

	"careshare/internal/appointments"
	"careshare/internal/audit"
	"careshare/internal/auth"
	"careshare/internal/calls"
	"careshare/internal/config"
	"careshare/internal/conversations"
	"careshare/internal/geo"
	"careshare/internal/httpapi"
	"careshare/internal/matching"
	"careshare/internal/observability"
	"careshare/internal/outreach"
	"careshare/internal/personalization"
	"careshare/internal/phone"
	"careshare/internal/reporting"
	"careshare/internal/seniors"
	"careshare/internal/skills"
	"careshare/internal/store/postgres"
	"careshare/internal/telephony"
	"careshare/internal/volunteers"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type app struct {
	router *gin.Engine
}

// newApp wires services over the Postgres store. rdb may be nil.
// Keep this file free of business logic.
func newApp(cfg config.Config, log *slog.Logger, store *postgres.Store, rdb *redis.Client) (*app, error) {
	metrics := observability.NewMetrics()

	var dir geo.Directory = postgres.NewZipDirectory(store.DB())
	var slots telephony.SlotLimiter = telephony.NopSlots{}
	if rdb != nil {
		dir = geo.NewCachedDirectory(dir, rdb, cfg.Redis.ZipCacheTTL)
		slots = telephony.NewRedisSlots(rdb, cfg.Outbound.MaxConcurrent, cfg.Outbound.SlotTTL)
	}

	prompts, err := personalization.LoadPrompts(cfg.Behavior.PromptsFile)
	if err != nil {
		return nil, err
	}

	phones := phone.NewNormalizer(cfg.Behavior.DefaultPhoneRegion)
	matcher := skills.NewMatcher(cfg.Behavior.SkillMatcher)
	auditSvc := audit.NewService(store)
	dialer := telephony.NewElevenLabsClient(cfg.ElevenLabs, cfg.Outbound, nil)
	if missing := dialer.Missing(); len(missing) > 0 {
		log.Warn("outbound calls disabled until configured", "missing", missing)
	}

	appts := appointments.NewService(store, store, store, appointments.NewRules(cfg.Behavior.AppointmentTransitions), auditSvc)
	appts.OnTransition = func(from, to appointments.Status, result string) {
		metrics.AppointmentTransition(string(from), string(to), result)
	}

	out := outreach.NewService(store, store, store, dialer, slots, cfg.Outbound.TestNumber)
	out.OnCall = func(role calls.Role, result string) {
		metrics.OutboundCall(string(role), result)
	}

	h := httpapi.Handlers{
		Seniors:      seniors.NewService(store, phones, auditSvc),
		Volunteers:   volunteers.NewService(store, dir),
		Appointments: appts,
		Conversations: conversations.NewService(conversations.Deps{
			Repo:       store,
			Seniors:    store,
			Volunteers: store,
			Phones:     phones,
			Skills:     matcher,
			Matching:   matching.NewEngine(store, dir),
			Slots:      slots,
			Audit:      auditSvc,
		}),
		CallLog:  calls.NewService(store),
		Outreach: out,
		Personalizer: &personalization.Service{
			Phones:        phones,
			Seniors:       store,
			Conversations: store,
			Volunteers:    store,
			Prompts:       prompts,
			Timezone:      cfg.Behavior.AgentTimezone,
			OnResolve: func(m personalization.Mode) {
				metrics.Personalization(string(m))
			},
		},
		Reporting: reporting.NewService(store),
		Skills:    matcher,
		DB:        store,
		Metrics:   metrics.Handler(),
		Webhook: httpapi.WebhookConfig{
			Secret:           cfg.ElevenLabs.WebhookSecret,
			RequireSignature: cfg.ElevenLabs.RequireSignature,
		},
	}

	var guards httpapi.Guards
	if cfg.Auth.Enabled {
		m, err := auth.NewManager(cfg.Auth)
		if err != nil {
			return nil, err
		}
		guards = httpapi.AuthGuards(m)
	}

	r := httpapi.NewEngine(log,
		otelgin.Middleware(cfg.Telemetry.ServiceName),
		metrics.Middleware(),
		httpapi.CORS(cfg.CORS.AllowedOrigins),
	)
	h.Register(r, guards)

	return &app{router: r}, nil
}
