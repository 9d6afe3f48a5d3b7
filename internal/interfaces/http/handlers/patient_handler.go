package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/repository"
	apperrors "github.com/odontoflow/odontoflow/gateway/pkg/errors"
)

// PatientHandler serves the attendant-facing patient views.
type PatientHandler struct {
	patients     repository.PatientRepository
	interactions repository.InteractionRepository
	logger       *zap.Logger
}

func NewPatientHandler(
	patients repository.PatientRepository,
	interactions repository.InteractionRepository,
	logger *zap.Logger,
) *PatientHandler {
	return &PatientHandler{
		patients:     patients,
		interactions: interactions,
		logger:       logger,
	}
}

type PatientView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

type InteractionView struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	Message    string    `json:"message"`
	Intent     string    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Reply      string    `json:"reply"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListPatients handles GET /api/v1/patients?limit=&offset=.
func (h *PatientHandler) ListPatients(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	patients, err := h.patients.FindAll(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	total, err := h.patients.Count(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]PatientView, 0, len(patients))
	for _, p := range patients {
		views = append(views, toPatientView(p))
	}

	c.JSON(http.StatusOK, gin.H{
		"patients": views,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetPatient handles GET /api/v1/patients/:id, returning the patient
// with their most recent interactions.
func (h *PatientHandler) GetPatient(c *gin.Context) {
	id := c.Param("id")

	patient, err := h.patients.FindByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	history, err := h.interactions.FindByPatientID(c.Request.Context(), id, 20, 0)
	if err != nil {
		h.respondError(c, err)
		return
	}

	total, err := h.interactions.CountByPatient(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]InteractionView, 0, len(history))
	for _, i := range history {
		views = append(views, InteractionView{
			ID:         i.ID(),
			Channel:    string(i.Channel()),
			Message:    i.MessageText(),
			Intent:     string(i.Intent().Label()),
			Confidence: i.Intent().Confidence(),
			Reply:      i.ReplyText(),
			CreatedAt:  i.CreatedAt(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"patient":            toPatientView(patient),
		"interactions":       views,
		"total_interactions": total,
	})
}

func (h *PatientHandler) respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), gin.H{
			"error": appErr.Message,
			"code":  string(appErr.Code),
		})
		return
	}

	h.logger.Error("Patient query failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func toPatientView(p *entity.Patient) PatientView {
	return PatientView{
		ID:            p.ID(),
		Name:          p.Name(),
		CreatedAt:     p.CreatedAt(),
		LastMessageAt: p.LastMessageAt(),
	}
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
