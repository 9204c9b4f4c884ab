package httpapi

import (
	"errors"
	"net/http"
	"time"

	"careshare/internal/appointments"
	"careshare/internal/calls"
	"careshare/internal/conversations"
	"careshare/internal/outreach"
	"careshare/internal/seniors"
	"careshare/internal/volunteers"

	"github.com/gin-gonic/gin"
)

// --- Lookup tools ---

func (h Handlers) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "hello from agent route"})
}

type findAndParseRequest struct {
	CallerPhoneNumber string `json:"caller_phone_number" validate:"required"`
	RequestDetails    string `json:"request_details" validate:"required"`
}

// FindAndParse identifies the caller, matches a skill from their request and
// lists every volunteer holding it.
func (h Handlers) FindAndParse(c *gin.Context) {
	var req findAndParseRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	ctx := c.Request.Context()

	senior, err := h.Seniors.FindByPhone(ctx, req.CallerPhoneNumber)
	if err != nil {
		agentError(c, err)
		return
	}
	skill, ok := h.Skills.Match(req.RequestDetails)
	if !ok {
		agentFail(c, http.StatusOK, CodeNoSkill, "Could not determine skill", nil)
		return
	}
	vols, err := h.Volunteers.Search(ctx, volunteers.SearchInput{Skill: skill})
	if err != nil {
		agentError(c, err)
		return
	}
	agentOK(c, http.StatusOK, gin.H{
		"senior":               senior,
		"matched_skill":        skill,
		"potential_volunteers": vols,
	})
}

type listVolunteersRequest struct {
	Skill  string   `json:"skill" validate:"omitempty,skill"`
	Zip    string   `json:"zip"`
	Radius *flexInt `json:"radius" validate:"omitempty,min=1,max=200"`
}

func (h Handlers) ListVolunteersForAgent(c *gin.Context) {
	var req listVolunteersRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	in := volunteers.SearchInput{Skill: req.Skill, Zip: req.Zip}
	if req.Radius != nil {
		in.Radius = int(*req.Radius)
	}
	vols, err := h.Volunteers.Search(c.Request.Context(), in)
	if err != nil {
		agentError(c, err)
		return
	}
	agentOK(c, http.StatusOK, vols)
}

func (h Handlers) GetVolunteer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		agentFail(c, http.StatusOK, CodeInvalidID, "Invalid volunteer id", nil)
		return
	}
	v, err := h.Volunteers.Get(c.Request.Context(), id)
	if err != nil {
		agentError(c, err)
		return
	}
	agentOK(c, http.StatusOK, v)
}

// --- Seniors ---

type createSeniorRequest struct {
	FirstName     *string `json:"first_name" validate:"omitempty,min=1"`
	LastName      *string `json:"last_name" validate:"omitempty,min=1"`
	PhoneNumber   string  `json:"phone_number" validate:"required"`
	Email         *string `json:"email"`
	StreetAddress *string `json:"street_address"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	ZipCode       *string `json:"zip_code"`
}

func (h Handlers) CreateSenior(c *gin.Context) {
	var req createSeniorRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	s, err := h.Seniors.Upsert(c.Request.Context(), seniors.UpsertInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		PhoneNumber:   req.PhoneNumber,
		Email:         req.Email,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		State:         req.State,
		ZipCode:       req.ZipCode,
	})
	if err != nil {
		agentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s, "upserted": "created_or_updated"})
}

// --- Inbound conversations ---

type startInboundRequest struct {
	CallerPhoneNumber string   `json:"caller_phone_number" validate:"required"`
	RequestDetails    string   `json:"request_details" validate:"required"`
	CreateIfMissing   bool     `json:"create_if_missing"`
	FirstName         *string  `json:"first_name"`
	LastName          *string  `json:"last_name"`
	Email             *string  `json:"email"`
	StreetAddress     *string  `json:"street_address"`
	City              *string  `json:"city"`
	State             *string  `json:"state"`
	ZipCode           *string  `json:"zip_code"`
	Zip               string   `json:"zip"`
	Radius            *flexInt `json:"radius" validate:"omitempty,min=1,max=200"`
}

func (h Handlers) StartInboundConversation(c *gin.Context) {
	var req startInboundRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	in := conversations.StartInput{
		CallerPhoneNumber: req.CallerPhoneNumber,
		RequestDetails:    req.RequestDetails,
		CreateIfMissing:   req.CreateIfMissing,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		StreetAddress:     req.StreetAddress,
		City:              req.City,
		State:             req.State,
		ZipCode:           req.ZipCode,
		Zip:               req.Zip,
	}
	if req.Radius != nil {
		in.Radius = int(*req.Radius)
	}
	res, err := h.Conversations.StartInbound(c.Request.Context(), in)
	if err != nil {
		agentError(c, err)
		return
	}
	agentOK(c, http.StatusCreated, res)
}

type logVolunteerCallRequest struct {
	ConversationID flexInt `json:"conversation_id" validate:"required"`
	VolunteerID    flexInt `json:"volunteer_id" validate:"required"`
	Outcome        string  `json:"outcome" validate:"required,outcome"`
	Notes          *string `json:"notes"`
}

func (h Handlers) LogVolunteerCall(c *gin.Context) {
	var req logVolunteerCallRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	call, err := h.Conversations.LogVolunteerCall(c.Request.Context(), conversations.LogCallInput{
		ConversationID: req.ConversationID.int64(),
		VolunteerID:    req.VolunteerID.int64(),
		Outcome:        calls.Outcome(req.Outcome),
		Notes:          req.Notes,
	})
	if err != nil {
		agentError(c, err)
		return
	}
	agentOK(c, http.StatusCreated, call)
}

func (h Handlers) GetConversation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		agentFail(c, http.StatusOK, CodeInvalidID, "Invalid conversation id", nil)
		return
	}
	d, err := h.Conversations.Get(c.Request.Context(), id)
	if err != nil {
		agentError(c, err)
		return
	}
	agentOK(c, http.StatusOK, d)
}

func (h Handlers) AcceptedVolunteers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		agentFail(c, http.StatusOK, CodeInvalidID, "Invalid conversation id", nil)
		return
	}
	list, err := h.Conversations.Accepted(c.Request.Context(), id)
	if err != nil {
		agentError(c, err)
		return
	}
	agentOK(c, http.StatusOK, list)
}

type finalizeRequest struct {
	ConversationID      flexInt   `json:"conversation_id" validate:"required"`
	ChosenVolunteerID   flexInt   `json:"chosen_volunteer_id" validate:"required"`
	AppointmentDatetime time.Time `json:"appointment_datetime" validate:"required"`
	Location            *string   `json:"location"`
	NotesForVolunteer   *string   `json:"notes_for_volunteer"`
	SeniorID            *flexInt  `json:"senior_id"`
}

func (h Handlers) FinalizeConversation(c *gin.Context) {
	var req finalizeRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	appt, err := h.Conversations.Finalize(c.Request.Context(), conversations.FinalizeInput{
		ConversationID:      req.ConversationID.int64(),
		ChosenVolunteerID:   req.ChosenVolunteerID.int64(),
		AppointmentDatetime: req.AppointmentDatetime,
		Location:            req.Location,
		NotesForVolunteer:   req.NotesForVolunteer,
		SeniorID:            req.SeniorID.ptr(),
	})
	if err != nil {
		agentError(c, err)
		return
	}
	agentOK(c, http.StatusCreated, appt)
}

// --- Appointments and the legacy call log ---
// These three return raw rows on success.

type confirmAppointmentRequest struct {
	AppointmentID flexInt `json:"appointment_id" validate:"required"`
}

func (h Handlers) ConfirmAppointment(c *gin.Context) {
	var req confirmAppointmentRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	appt, err := h.Appointments.Confirm(c.Request.Context(), req.AppointmentID.int64())
	if err != nil {
		agentError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

type scheduleAppointmentRequest struct {
	SeniorID            flexInt   `json:"senior_id" validate:"required"`
	VolunteerID         flexInt   `json:"volunteer_id" validate:"required"`
	AppointmentDatetime time.Time `json:"appointment_datetime" validate:"required"`
	NotesForVolunteer   *string   `json:"notes_for_volunteer"`
	Location            *string   `json:"location"`
}

func (h Handlers) ScheduleAppointment(c *gin.Context) {
	var req scheduleAppointmentRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	appt, err := h.Appointments.Schedule(c.Request.Context(), appointments.ScheduleInput{
		SeniorID:            req.SeniorID.int64(),
		VolunteerID:         req.VolunteerID.int64(),
		AppointmentDatetime: req.AppointmentDatetime,
		Location:            req.Location,
		NotesForVolunteer:   req.NotesForVolunteer,
	})
	if err != nil {
		agentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

type logCallOutcomeRequest struct {
	SeniorID    flexInt `json:"senior_id" validate:"required"`
	VolunteerID flexInt `json:"volunteer_id" validate:"required"`
	Outcome     string  `json:"outcome" validate:"required,outcome"`
	Notes       *string `json:"notes"`
}

func (h Handlers) LogCallOutcome(c *gin.Context) {
	var req logCallOutcomeRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	a, err := h.CallLog.LogOutcome(c.Request.Context(), calls.Attempt{
		SeniorID:    req.SeniorID.int64(),
		VolunteerID: req.VolunteerID.int64(),
		Outcome:     calls.Outcome(req.Outcome),
		Notes:       req.Notes,
	})
	if err != nil {
		agentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// --- Outbound calls ---
// Success bodies are {success, upstream_status, data}; success mirrors the
// provider's 2xx.

type outboundCallRequest struct {
	ConversationID flexInt `json:"conversation_id" validate:"required"`
	VolunteerID    flexInt `json:"volunteer_id" validate:"required"`
	ToNumber       string  `json:"to_number"`
}

func (h Handlers) OutboundCall(c *gin.Context) {
	var req outboundCallRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	res, err := h.Outreach.CallVolunteer(c.Request.Context(), outreach.VolunteerCallInput{
		ConversationID: req.ConversationID.int64(),
		VolunteerID:    req.VolunteerID.int64(),
		ToNumber:       req.ToNumber,
	})
	if err != nil {
		agentError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type outboundCallTestRequest struct {
	ToNumber string `json:"to_number"`
}

func (h Handlers) OutboundCallTest(c *gin.Context) {
	var req outboundCallTestRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	res, err := h.Outreach.TestCall(c.Request.Context(), req.ToNumber)
	if err != nil {
		agentError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type callbackSeniorRequest struct {
	ConversationID flexInt  `json:"conversation_id" validate:"required"`
	SeniorID       *flexInt `json:"senior_id"`
	ToNumber       string   `json:"to_number"`
}

func (h Handlers) OutboundCallbackSenior(c *gin.Context) {
	var req callbackSeniorRequest
	if err := bindJSON(c, &req); err != nil {
		agentError(c, err)
		return
	}
	res, err := h.Outreach.CallbackSenior(c.Request.Context(), outreach.SeniorCallbackInput{
		ConversationID: req.ConversationID.int64(),
		SeniorID:       req.SeniorID.ptr(),
		ToNumber:       req.ToNumber,
	})
	if errors.Is(err, conversations.ErrNoSenior) {
		agentFail(c, http.StatusOK, CodeNoSenior, "Senior id/number required", nil)
		return
	}
	if err != nil {
		agentError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
