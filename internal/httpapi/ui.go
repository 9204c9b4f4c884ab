package httpapi

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"careshare/internal/appointments"
	"careshare/internal/volunteers"
	"careshare/pkg/logger"

	"github.com/gin-gonic/gin"
)

func (h Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": "CareShare API"})
}

func (h Handlers) Health(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "database": "disconnected", "error": "database not configured"})
		return
	}
	if err := h.DB.Ping(c.Request.Context()); err != nil {
		logger.FromGin(c).Error("health check failed", "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "database": "disconnected", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "database": "connected"})
}

func (h Handlers) Stats(c *gin.Context) {
	st, err := h.Reporting.Stats(c.Request.Context())
	if err != nil {
		uiError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h Handlers) ListSeniors(c *gin.Context) {
	list, err := h.Seniors.List(c.Request.Context())
	if err != nil {
		uiError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) ListVolunteers(c *gin.Context) {
	list, err := h.Volunteers.List(c.Request.Context())
	if err != nil {
		uiError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// NearbyZips lists the zip codes within ?radius miles (default 10).
func (h Handlers) NearbyZips(c *gin.Context) {
	radius := float64(volunteers.DefaultRadiusMiles)
	if raw := strings.TrimSpace(c.Query("radius")); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid radius"})
			return
		}
		radius = r
	}
	zips, err := h.Volunteers.Nearby(c.Request.Context(), c.Param("zip"), radius)
	if err != nil {
		uiError(c, err)
		return
	}
	c.JSON(http.StatusOK, zips)
}

func (h Handlers) ListAppointments(c *gin.Context) {
	list, err := h.Appointments.List(c.Request.Context())
	if err != nil {
		uiError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) SeniorAppointments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid senior id"})
		return
	}
	list, err := h.Appointments.ListForSenior(c.Request.Context(), id)
	if err != nil {
		uiError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) VolunteerAppointments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid volunteer id"})
		return
	}
	list, err := h.Appointments.ListForVolunteer(c.Request.Context(), id)
	if err != nil {
		uiError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type appointmentStatusRequest struct {
	Status string `json:"status" validate:"required,appointment_status"`
}

// SetAppointmentStatus applies the transition rules; illegal moves are 409.
func (h Handlers) SetAppointmentStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment id"})
		return
	}
	var req appointmentStatusRequest
	if err := bindJSON(c, &req); err != nil {
		uiError(c, err)
		return
	}
	appt, err := h.Appointments.SetStatus(c.Request.Context(), id, appointments.Status(req.Status))
	if err != nil {
		uiError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}
