package session

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/expertcall/backend/internal/appointments"
	"github.com/expertcall/backend/internal/middleware"
	"github.com/expertcall/backend/pkg/response"
)

// Handler exposes the session token broker over HTTP.
type Handler struct {
	broker *Broker
	logger *zap.Logger
}

// NewHandler creates a session handler.
func NewHandler(broker *Broker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{broker: broker, logger: logger}
}

// GetToken handles GET /appointments/:id/session-token for users and guests.
// Every broker error kind maps to exactly one response shape.
func (h *Handler) GetToken(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid appointment id")
		return
	}
	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	grant, err := h.broker.RequestSession(c.Request.Context(), appointmentID, callerID)
	switch {
	case err == nil:
		response.OK(c, grant)
	case errors.Is(err, appointments.ErrNotFound):
		response.NotFound(c, "appointment not found")
	case errors.Is(err, ErrOutsideAccessWindow):
		response.BadRequest(c, "appointment is not in valid time range to get token")
	case errors.Is(err, appointments.ErrNotActionable):
		response.Conflict(c, "appointment status does not permit a call")
	case errors.Is(err, ErrNotParticipant):
		response.Forbidden(c, "not a party of this appointment")
	case errors.Is(err, ErrIssuanceFailed):
		h.logger.Warn("session credential issuance failed",
			zap.String("appointment_id", appointmentID.String()), zap.Error(err))
		response.ServiceUnavailable(c, "call service temporarily unavailable, retry shortly")
	case errors.Is(err, appointments.ErrInvalidAppointment):
		h.logger.Error("appointment has invalid schedule data",
			zap.String("appointment_id", appointmentID.String()))
		response.Internal(c, "appointment data error")
	default:
		h.logger.Error("session request failed",
			zap.String("appointment_id", appointmentID.String()), zap.Error(err))
		response.Internal(c, "failed to get session token")
	}
}
