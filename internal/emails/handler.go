package emails

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/expertcall/backend/internal/appointments"
	"github.com/expertcall/backend/internal/middleware"
	"github.com/expertcall/backend/internal/models"
	"github.com/expertcall/backend/pkg/response"
)

// AppointmentGetter fetches appointments for the party check.
type AppointmentGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
}

// Handler exposes the email log of an appointment to its parties.
type Handler struct {
	repo  *Repository
	appts AppointmentGetter
}

// NewHandler creates an email log handler.
func NewHandler(repo *Repository, appts AppointmentGetter) *Handler {
	return &Handler{repo: repo, appts: appts}
}

// ListByAppointment handles GET /appointments/:id/emails.
func (h *Handler) ListByAppointment(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid appointment id")
		return
	}
	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	appt, err := h.appts.GetByID(c.Request.Context(), appointmentID)
	if err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			response.NotFound(c, "appointment not found")
			return
		}
		response.Internal(c, "failed to load appointment")
		return
	}
	if appointments.ResolveRole(appt, callerID) == appointments.PartyNone {
		response.Forbidden(c, "not a party of this appointment")
		return
	}

	list, err := h.repo.ListByAppointment(c.Request.Context(), appointmentID)
	if err != nil {
		response.Internal(c, "failed to list emails")
		return
	}
	response.OK(c, list)
}
