package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/application/usecase"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	apperrors "github.com/odontoflow/odontoflow/gateway/pkg/errors"
)

// TriageHandler exposes the triage pipeline to the WhatsApp connector.
type TriageHandler struct {
	triage *usecase.TriageUseCase
	logger *zap.Logger
}

func NewTriageHandler(triage *usecase.TriageUseCase, logger *zap.Logger) *TriageHandler {
	return &TriageHandler{
		triage: triage,
		logger: logger,
	}
}

// TriageRequest is the connector's message envelope. Message is a
// pointer so a present-but-empty string binds fine while a missing key
// fails validation: an empty message is a real event (media-only
// WhatsApp messages arrive with empty text), an absent key is a
// malformed request.
type TriageRequest struct {
	SenderID   string  `json:"sender_id" binding:"required"`
	Message    *string `json:"message" binding:"required"`
	SenderName string  `json:"sender_name"`
	Timestamp  string  `json:"timestamp"`
}

type TriageResponse struct {
	Intent        string  `json:"intent"`
	Confidence    float64 `json:"confidence"`
	Reply         string  `json:"reply"`
	IsNewPatient  bool    `json:"is_new_patient"`
	PatientStatus string  `json:"patient_status"`
	NextAction    string  `json:"next_action"`
}

// Triage handles POST /triage.
func (h *TriageHandler) Triage(c *gin.Context) {
	var req TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		status := http.StatusUnprocessableEntity
		if isMalformedJSON(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "sender_id and message are required: " + err.Error()})
		return
	}

	cmd := usecase.TriageCommand{
		SenderID:   req.SenderID,
		SenderName: req.SenderName,
		Message:    *req.Message,
		Channel:    entity.ChannelHTTP,
	}

	// The connector's timestamp is best-effort; an unparseable value
	// falls back to the gateway clock.
	if req.Timestamp != "" {
		if at, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
			cmd.OccurredAt = at
		}
	}

	result, err := h.triage.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TriageResponse{
		Intent:        string(result.Intent.Label()),
		Confidence:    result.Intent.Confidence(),
		Reply:         result.Reply,
		IsNewPatient:  result.IsNewPatient,
		PatientStatus: string(result.PatientStatus),
		NextAction:    string(result.NextAction),
	})
}

func (h *TriageHandler) respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), gin.H{
			"error": appErr.Message,
			"code":  string(appErr.Code),
		})
		return
	}

	h.logger.Error("Triage failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to triage message"})
}

// isMalformedJSON separates unreadable bodies (400) from well-formed
// JSON that fails validation (422).
func isMalformedJSON(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr)
}
