package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/expertcall/backend/internal/middleware"
	"github.com/expertcall/backend/internal/models"
	"github.com/expertcall/backend/pkg/queue"
	"github.com/expertcall/backend/pkg/response"
)

// UserGetter fetches users for expert validation and email lookup.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// GuestGetter fetches guests for email lookup on guest-owned appointments.
type GuestGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Guest, error)
}

// Notifier pushes realtime appointment events to a connected party.
type Notifier interface {
	PublishToUser(userID uuid.UUID, event string, payload interface{})
}

// CreateRequest is the body for POST /appointments and POST /appointments/guest.
type CreateRequest struct {
	Start         string `json:"start" binding:"required"`
	ExpertID      string `json:"expert_id" binding:"required,uuid"`
	ClientMessage string `json:"client_message" binding:"max=1000"`
}

// UpdateStatusRequest is the body for PUT /appointments/status.
type UpdateStatusRequest struct {
	AppointmentID string `json:"appointment_id" binding:"required,uuid"`
	Status        int    `json:"status" binding:"required"`
	Reason        string `json:"reason"`
}

// Handler handles appointment HTTP endpoints.
type Handler struct {
	repo   *Repository
	policy *TransitionPolicy
	users  UserGetter
	guests GuestGetter
	jobs   *queue.Queue
	events Notifier
	logger *zap.Logger
}

// NewHandler creates an appointment handler.
func NewHandler(repo *Repository, policy *TransitionPolicy, users UserGetter, guests GuestGetter, jobs *queue.Queue, events Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, policy: policy, users: users, guests: guests, jobs: jobs, events: events, logger: logger}
}

// Create handles POST /appointments (users) and POST /appointments/guest
// (guest-hash identified). The booking party becomes user_id_from.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	callerRole, _ := c.Get(middleware.ContextUserRole)

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		response.BadRequest(c, "invalid start")
		return
	}
	if !start.After(time.Now()) {
		response.BadRequest(c, "start must be in the future")
		return
	}

	expertID, err := uuid.Parse(req.ExpertID)
	if err != nil {
		response.BadRequest(c, "invalid expert_id")
		return
	}
	if expertID == callerID {
		response.BadRequest(c, "cannot book an appointment with yourself")
		return
	}
	expert, err := h.users.GetByID(c.Request.Context(), expertID)
	if err != nil || expert == nil {
		response.NotFound(c, "expert not found")
		return
	}

	busy, err := h.repo.HasConflict(c.Request.Context(), expertID, start)
	if err != nil {
		response.Internal(c, "failed to check availability")
		return
	}
	if busy {
		response.Conflict(c, "expert is not available at this time")
		return
	}

	a := &models.Appointment{
		Start:         start,
		UserIDFrom:    callerID,
		UserIDTo:      expertID,
		IsGuestOwned:  callerRole == "guest",
		ClientMessage: req.ClientMessage,
	}
	if err := h.repo.Create(c.Request.Context(), a); err != nil {
		h.logger.Error("create appointment", zap.Error(err))
		response.Internal(c, "failed to create appointment")
		return
	}
	a.Status = models.StatusPending

	h.notifyParty(c.Request.Context(), a, PartyExpert, "booked")
	response.Created(c, gin.H{"id": a.ID})
}

// List handles GET /appointments, scoped to the calling party. Query params:
// appointment_id, status (exact), status_type (at least), start_from, start_to.
func (h *Handler) List(c *gin.Context) {
	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	f := Filter{Party: &callerID}

	if v := c.Query("appointment_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid appointment_id")
			return
		}
		f.ID = &id
	}
	if v := c.Query("status"); v != "" {
		s, err := parseStatus(v)
		if err != nil {
			response.BadRequest(c, "invalid status")
			return
		}
		f.Status = &s
	} else if v := c.Query("status_type"); v != "" {
		s, err := parseStatus(v)
		if err != nil {
			response.BadRequest(c, "invalid status_type")
			return
		}
		f.StatusAtLeast = &s
	}
	if v := c.Query("start_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "invalid start_from")
			return
		}
		f.StartFrom = &t
	}
	if v := c.Query("start_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "invalid start_to")
			return
		}
		f.StartTo = &t
	}

	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list appointments", zap.Error(err))
		response.Internal(c, "failed to list appointments")
		return
	}
	response.OK(c, list)
}

// UpdateStatus handles PUT /appointments/status. The transition table decides
// whether the caller's party may apply the requested change; rejected requests
// leave the stored status untouched.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		response.BadRequest(c, "invalid appointment_id")
		return
	}
	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	appt, err := h.repo.GetByID(c.Request.Context(), appointmentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "appointment not found")
			return
		}
		response.Internal(c, "failed to load appointment")
		return
	}

	role := ResolveRole(appt, callerID)
	if role == PartyNone {
		response.Forbidden(c, "not a party of this appointment")
		return
	}

	requested := models.AppointmentStatus(req.Status)
	newStatus, err := h.policy.Decide(appt.Status, requested, role)
	if err != nil {
		response.Conflict(c, err.Error())
		return
	}

	if err := h.repo.UpdateStatus(c.Request.Context(), appointmentID, newStatus, req.Reason); err != nil {
		h.logger.Error("update appointment status", zap.Error(err),
			zap.String("appointment_id", appointmentID.String()))
		response.Internal(c, "failed to update status")
		return
	}
	appt.Status = newStatus
	appt.Reason = req.Reason

	// The party that did not make the change gets notified.
	other := PartyExpert
	if role == PartyExpert {
		other = PartyClient
	}
	h.notifyParty(c.Request.Context(), appt, other, newStatus.String())

	response.OK(c, gin.H{"id": appointmentID, "status": newStatus})
}

func parseStatus(v string) (models.AppointmentStatus, error) {
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, err
	}
	s := models.AppointmentStatus(n)
	if !s.Valid() {
		return 0, fmt.Errorf("unknown status %d", n)
	}
	return s, nil
}

// notifyParty enqueues a notification email to one party of the appointment
// and pushes a realtime event. Both are best-effort; the appointment change
// itself has already been committed.
func (h *Handler) notifyParty(ctx context.Context, a *models.Appointment, party PartyRole, eventType string) {
	email, userID := h.partyContact(ctx, a, party)
	if email != "" && h.jobs != nil {
		err := h.jobs.EnqueueEmail(ctx, queue.EmailPayload{
			EmailType:      eventType,
			AppointmentID:  a.ID,
			RecipientEmail: email,
			Subject:        fmt.Sprintf("Appointment %s", eventType),
			BodyHTML: fmt.Sprintf("<p>Your appointment scheduled for %s is now <b>%s</b>.</p>",
				a.Start.Format(time.RFC1123), eventType),
		})
		if err != nil {
			h.logger.Warn("enqueue email", zap.Error(err), zap.String("appointment_id", a.ID.String()))
		}
	}
	if h.events != nil && userID != uuid.Nil {
		h.events.PublishToUser(userID, "appointment_"+eventType, gin.H{
			"appointment_id": a.ID,
			"status":         a.Status,
			"start":          a.Start,
		})
	}
}

// partyContact returns the email address and id of one appointment party.
func (h *Handler) partyContact(ctx context.Context, a *models.Appointment, party PartyRole) (string, uuid.UUID) {
	if party == PartyExpert {
		u, err := h.users.GetByID(ctx, a.UserIDTo)
		if err != nil || u == nil {
			return "", a.UserIDTo
		}
		return u.Email, u.ID
	}
	if a.IsGuestOwned {
		g, err := h.guests.GetByID(ctx, a.UserIDFrom)
		if err != nil || g == nil {
			return "", a.UserIDFrom
		}
		return g.Email, g.ID
	}
	u, err := h.users.GetByID(ctx, a.UserIDFrom)
	if err != nil || u == nil {
		return "", a.UserIDFrom
	}
	return u.Email, u.ID
}
