package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/notify"
	"github.com/Dosada05/federation-registry/repositories"
	"github.com/Dosada05/federation-registry/tracing"
)

var tracer = otel.Tracer("github.com/Dosada05/federation-registry/services")

// --- Трассировка ---

func startSpan(ctx context.Context, name string, actor models.Actor, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.Int(tracing.AttrActorID, actor.UserID),
		attribute.String(tracing.AttrActorRole, string(actor.Role)),
	)
	return tracer.Start(ctx, "services."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// --- Ошибки репозиториев ---

// mapRegistrationRepoError переводит ошибки хранилища в доменные.
func mapRegistrationRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrRegistrationNotFound):
		return ErrRegistrationNotFound
	case errors.Is(err, repositories.ErrActiveRegistrationExists):
		return ErrDuplicateActiveRegistration
	case errors.Is(err, repositories.ErrRegistrationCategoryInvalid),
		errors.Is(err, repositories.ErrTournamentCategoryNotFound):
		return ErrUnknownCategory
	case errors.Is(err, repositories.ErrRegistrationRosterRefInvalid):
		return ErrInvalidReference
	default:
		return fmt.Errorf("registration storage failure: %w", err)
	}
}

// --- Аудит ---

func newAuditEntry(registrationID int, action models.AuditAction, actor models.Actor, at time.Time, description string, before, after interface{}) (*models.AuditLogEntry, error) {
	entry := &models.AuditLogEntry{
		ID:             uuid.NewString(),
		RegistrationID: registrationID,
		Action:         action,
		Description:    description,
		ActorID:        actor.UserID,
		ActorRole:      actor.Role,
		CreatedAt:      at,
	}
	var err error
	if entry.Before, err = snapshot(before); err != nil {
		return nil, err
	}
	if entry.After, err = snapshot(after); err != nil {
		return nil, err
	}
	return entry, nil
}

func snapshot(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit snapshot: %w", err)
	}
	return raw, nil
}

type statusSnapshot struct {
	Status          models.RegistrationStatus `json:"status"`
	RejectionReason *string                   `json:"rejection_reason,omitempty"`
	ApprovedBy      *int                      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time                `json:"approved_at,omitempty"`
}

func statusOf(reg *models.Registration) statusSnapshot {
	c := reg.Clone()
	return statusSnapshot{
		Status:          c.Status,
		RejectionReason: c.RejectionReason,
		ApprovedBy:      c.ApprovedBy,
		ApprovedAt:      c.ApprovedAt,
	}
}

type rosterSnapshot struct {
	Athletes []models.AthleteEntry `json:"athletes,omitempty"`
	Judges   []models.JudgeEntry   `json:"judges,omitempty"`
}

// bareAthletes drops the attached people so snapshots only hold ids.
func bareAthletes(entries []models.AthleteEntry) []models.AthleteEntry {
	out := make([]models.AthleteEntry, len(entries))
	for i, e := range entries {
		out[i] = models.AthleteEntry{AthleteID: e.AthleteID, CoachID: e.CoachID}
	}
	return out
}

func bareJudges(entries []models.JudgeEntry) []models.JudgeEntry {
	out := make([]models.JudgeEntry, len(entries))
	for i, e := range entries {
		out[i] = models.JudgeEntry{JudgeID: e.JudgeID}
	}
	return out
}

// --- Уведомления ---

// publishEvent never fails the caller: the change is already committed.
func publishEvent(ctx context.Context, notifier notify.Notifier, logger *slog.Logger, event models.Event) {
	if notifier == nil {
		return
	}
	if err := notifier.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event",
			slog.String("event_type", string(event.Type)),
			slog.Int("category_id", event.TournamentCategoryID),
			slog.Int("registration_id", event.RegistrationID),
			slog.Any("error", err))
	}
}
