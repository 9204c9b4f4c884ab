package httpapi

import (
	"context"
	"net/http"

	"careshare/internal/appointments"
	"careshare/internal/auth"
	"careshare/internal/calls"
	"careshare/internal/conversations"
	"careshare/internal/outreach"
	"careshare/internal/personalization"
	"careshare/internal/rbac"
	"careshare/internal/reporting"
	"careshare/internal/seniors"
	"careshare/internal/skills"
	"careshare/internal/volunteers"

	"github.com/gin-gonic/gin"
)

// Pinger reports database reachability for the health route.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WebhookConfig controls HMAC checks on the personalization webhook.
type WebhookConfig struct {
	Secret           string
	RequireSignature bool
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Seniors       *seniors.Service
	Volunteers    *volunteers.Service
	Appointments  *appointments.Service
	Conversations *conversations.Service
	CallLog       *calls.Service
	Outreach      *outreach.Service
	Personalizer  *personalization.Service
	Reporting     *reporting.Service
	Skills        skills.Matcher

	DB      Pinger
	Metrics http.Handler
	Webhook WebhookConfig
}

// Guards are the middleware chains put in front of each surface.
type Guards struct {
	Agent []gin.HandlerFunc
	UI    []gin.HandlerFunc
}

// AuthGuards requires an access token on both surfaces. Agent routes accept
// the agent role; UI routes accept coordinators and agents. Admin passes
// everywhere. A nil manager leaves every route open.
func AuthGuards(m *auth.Manager) Guards {
	if m == nil {
		return Guards{}
	}
	return Guards{
		Agent: []gin.HandlerFunc{
			auth.RequireAccessToken(m, denyAgent),
			rbac.RequireAnyRole(denyAgent, rbac.RoleAgent),
		},
		UI: []gin.HandlerFunc{
			auth.RequireAccessToken(m, nil),
			rbac.RequireAnyRole(nil, rbac.RoleCoordinator, rbac.RoleAgent),
		},
	}
}

// Register wires every route. The root, health, metrics and both provider
// webhooks stay outside the guards.
func (h Handlers) Register(r *gin.Engine, g Guards) {
	r.GET("/", h.Root)
	r.HEAD("/", h.Root)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.POST("/agent/personalization", h.Personalization)
	api.POST("/webhooks/twilio/status", h.TwilioStatus)

	agent := api.Group("/agent", g.Agent...)
	{
		agent.GET("/hello", h.Hello)
		agent.POST("/find-and-parse", h.FindAndParse)
		agent.POST("/list-volunteers", h.ListVolunteersForAgent)
		agent.POST("/find-volunteers", h.ListVolunteersForAgent)
		agent.POST("/create-senior", h.CreateSenior)
		agent.POST("/start-inbound-conversation", h.StartInboundConversation)
		agent.POST("/log-volunteer-call", h.LogVolunteerCall)
		agent.GET("/conversation/:id", h.GetConversation)
		agent.GET("/conversation/:id/accepted", h.AcceptedVolunteers)
		agent.POST("/finalize-conversation", h.FinalizeConversation)
		agent.POST("/confirm-appointment", h.ConfirmAppointment)
		agent.POST("/schedule-appointment", h.ScheduleAppointment)
		agent.POST("/log-call-outcome", h.LogCallOutcome)
		agent.POST("/outbound-call", h.OutboundCall)
		agent.POST("/outbound-call-test", h.OutboundCallTest)
		agent.POST("/outbound-callback-senior", h.OutboundCallbackSenior)
	}
	api.GET("/volunteer/:id", chain(g.Agent, h.GetVolunteer)...)

	ui := api.Group("", g.UI...)
	{
		ui.GET("/stats", h.Stats)
		ui.GET("/seniors", h.ListSeniors)
		ui.GET("/volunteers", h.ListVolunteers)
		ui.GET("/volunteers/nearby/:zip", h.NearbyZips)
		ui.GET("/appointments", h.ListAppointments)
		ui.GET("/senior/:id/appointments", h.SeniorAppointments)
		ui.GET("/volunteer/:id/appointments", h.VolunteerAppointments)
		ui.POST("/appointments/:id/status", h.SetAppointmentStatus)
	}
}

func chain(mw []gin.HandlerFunc, last gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mw)+1)
	out = append(out, mw...)
	return append(out, last)
}
