package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/application/usecase"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	apperrors "github.com/odontoflow/odontoflow/gateway/pkg/errors"
)

// AgendaHandler serves slot availability and bookings.
type AgendaHandler struct {
	agenda *usecase.AgendaUseCase
	logger *zap.Logger
}

func NewAgendaHandler(agenda *usecase.AgendaUseCase, logger *zap.Logger) *AgendaHandler {
	return &AgendaHandler{
		agenda: agenda,
		logger: logger,
	}
}

type SlotView struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type BookAppointmentRequest struct {
	SenderID string `json:"sender_id" binding:"required"`
	StartsAt string `json:"starts_at" binding:"required"`
	Notes    string `json:"notes"`
}

type AppointmentView struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
}

// ListFreeSlots handles GET /api/v1/agenda/slots?date=YYYY-MM-DD.
// Without a date it lists today's remaining grid.
func (h *AgendaHandler) ListFreeSlots(c *gin.Context) {
	loc := h.agenda.Location()

	day := time.Now().In(loc)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	slots, err := h.agenda.FreeSlots(c.Request.Context(), day)
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		views = append(views, SlotView{Start: s.Start, End: s.End})
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  day.Format("2006-01-02"),
		"slots": views,
	})
}

// BookAppointment handles POST /api/v1/appointments.
func (h *AgendaHandler) BookAppointment(c *gin.Context) {
	var req BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		status := http.StatusUnprocessableEntity
		if isMalformedJSON(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "sender_id and starts_at are required: " + err.Error()})
		return
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "starts_at must be RFC3339"})
		return
	}

	appt, err := h.agenda.Book(c.Request.Context(), req.SenderID, startsAt, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAppointmentView(appt))
}

// CancelAppointment handles POST /api/v1/appointments/:id/cancel.
func (h *AgendaHandler) CancelAppointment(c *gin.Context) {
	appt, err := h.agenda.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAppointmentView(appt))
}

func (h *AgendaHandler) respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), gin.H{
			"error": appErr.Message,
			"code":  string(appErr.Code),
		})
		return
	}

	h.logger.Error("Agenda operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func toAppointmentView(appt *entity.Appointment) AppointmentView {
	return AppointmentView{
		ID:        appt.ID(),
		PatientID: appt.PatientID(),
		StartsAt:  appt.StartsAt(),
		EndsAt:    appt.EndsAt(),
		Status:    string(appt.Status()),
		Notes:     appt.Notes(),
	}
}
