package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/domain/entity"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/repository"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/service"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/valueobject"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/eventbus"
	apperrors "github.com/odontoflow/odontoflow/gateway/pkg/errors"
)

// TriageCommand is one inbound patient message, whatever channel it
// came through.
type TriageCommand struct {
	SenderID   string
	SenderName string
	Message    string
	Channel    entity.Channel
	// OccurredAt is the channel-reported send time. Zero means "now".
	OccurredAt time.Time
}

// TriageResult is what goes back to the channel and to the attendants.
type TriageResult struct {
	Patient       *entity.Patient
	Interaction   *entity.Interaction
	Intent        valueobject.Intent
	Reply         string
	IsNewPatient  bool
	PatientStatus valueobject.PatientStatus
	NextAction    valueobject.NextAction
}

// TriageUseCase runs the triage pipeline: classify the message, find or
// create the patient, compose the reply and append the exchange to the
// interaction log. The operation is synchronous and fails whole; there
// are no retries.
type TriageUseCase struct {
	patients     repository.PatientRepository
	interactions repository.InteractionRepository
	classifier   service.IntentClassifier
	composer     service.ReplyComposer
	bus          eventbus.Bus
	logger       *zap.Logger
}

// NewTriageUseCase creates the triage use-case. The bus is optional;
// pass nil in wiring that has no observers (CLI one-shots).
func NewTriageUseCase(
	patients repository.PatientRepository,
	interactions repository.InteractionRepository,
	classifier service.IntentClassifier,
	composer service.ReplyComposer,
	bus eventbus.Bus,
	logger *zap.Logger,
) *TriageUseCase {
	return &TriageUseCase{
		patients:     patients,
		interactions: interactions,
		classifier:   classifier,
		composer:     composer,
		bus:          bus,
		logger:       logger,
	}
}

// Execute triages one message end to end.
func (uc *TriageUseCase) Execute(ctx context.Context, cmd TriageCommand) (*TriageResult, error) {
	started := time.Now()

	// 1. Normalize the sender identity
	sender, err := valueobject.NewSender(cmd.SenderID, cmd.SenderName)
	if err != nil {
		if errors.Is(err, valueobject.ErrEmptySenderID) {
			return nil, apperrors.NewInvalidInputError("sender_id must not be empty")
		}
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	channel := cmd.Channel
	if channel == "" {
		channel = entity.ChannelHTTP
	}

	// 2. Classify the message
	intent := uc.classifier.Classify(cmd.Message)

	// 3. Find or create the patient
	patient, created, err := uc.patients.GetOrCreate(ctx, sender.ID(), sender.Name())
	if err != nil {
		uc.reportError(ctx, err)
		uc.logger.Error("Failed to get or create patient",
			zap.String("patient_id", sender.ID()),
			zap.Error(err),
		)
		return nil, err
	}

	// A returning anonymous patient may introduce themselves later.
	if !created && !patient.HasName() && sender.HasName() {
		if err := uc.patients.UpdateName(ctx, patient.ID(), sender.Name()); err != nil {
			uc.logger.Warn("Failed to backfill patient name",
				zap.String("patient_id", patient.ID()),
				zap.Error(err),
			)
		} else {
			patient.SetName(sender.Name())
		}
	}

	status := valueobject.StatusFor(created)

	// 4. Compose the reply
	reply := uc.composer.Compose(patient, status, intent)

	// 5. Append to the interaction log
	interaction, err := entity.NewInteraction(
		uuid.New().String(),
		patient.ID(),
		channel,
		cmd.Message,
		intent,
		reply.Text,
	)
	if err != nil {
		return nil, apperrors.NewInternalErrorWithCause("failed to build interaction", err)
	}
	interaction.SetCreatedAt(cmd.OccurredAt)

	if err := uc.interactions.Save(ctx, interaction); err != nil {
		uc.reportError(ctx, err)
		uc.logger.Error("Failed to append interaction",
			zap.String("patient_id", patient.ID()),
			zap.Error(err),
		)
		return nil, err
	}

	// 6. Bump the patient's activity marker
	if err := uc.patients.TouchLastMessage(ctx, patient.ID(), interaction.CreatedAt()); err != nil {
		uc.logger.Warn("Failed to touch patient activity",
			zap.String("patient_id", patient.ID()),
			zap.Error(err),
		)
	}
	patient.Touch(interaction.CreatedAt())

	uc.logger.Info("Message triaged",
		zap.String("patient_id", patient.ID()),
		zap.String("channel", string(channel)),
		zap.String("intent", string(intent.Label())),
		zap.Float64("confidence", intent.Confidence()),
		zap.Bool("is_new_patient", created),
	)

	result := &TriageResult{
		Patient:       patient,
		Interaction:   interaction,
		Intent:        intent,
		Reply:         reply.Text,
		IsNewPatient:  created,
		PatientStatus: status,
		NextAction:    reply.NextAction,
	}

	// 7. Notify observers
	uc.publish(ctx, result, created, time.Since(started))

	return result, nil
}

func (uc *TriageUseCase) publish(ctx context.Context, result *TriageResult, created bool, took time.Duration) {
	if uc.bus == nil {
		return
	}

	if created {
		uc.bus.Publish(ctx, eventbus.NewEvent(eventbus.EventTypePatientCreated, eventbus.PatientCreatedPayload{
			PatientID: result.Patient.ID(),
			Name:      result.Patient.Name(),
			Channel:   string(result.Interaction.Channel()),
		}))
	}

	uc.bus.Publish(ctx, eventbus.NewEvent(eventbus.EventTypeTriageCompleted, eventbus.TriageCompletedPayload{
		InteractionID: result.Interaction.ID(),
		PatientID:     result.Patient.ID(),
		PatientName:   result.Patient.Name(),
		PatientStatus: string(result.PatientStatus),
		Channel:       string(result.Interaction.Channel()),
		MessageText:   result.Interaction.MessageText(),
		Intent:        string(result.Intent.Label()),
		Confidence:    result.Intent.Confidence(),
		ReplyText:     result.Reply,
		NextAction:    string(result.NextAction),
		Duration:      took,
	}))
}

func (uc *TriageUseCase) reportError(ctx context.Context, err error) {
	if uc.bus == nil {
		return
	}
	uc.bus.Publish(ctx, eventbus.NewEvent(eventbus.EventTypeError, eventbus.ErrorPayload{
		Component: "triage",
		Error:     err.Error(),
	}))
}
