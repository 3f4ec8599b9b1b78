package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/notify"
	"github.com/Dosada05/federation-registry/repositories"
	"github.com/Dosada05/federation-registry/tracing"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	categoryLookups  = 4
)

type NewCoachInput struct {
	Name string `json:"name"`
}

type NewJudgeInput struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// AthleteInput references an existing athlete and either an existing coach
// or a coach to be created by name.
type AthleteInput struct {
	AthleteID int            `json:"athlete_id"`
	CoachID   *int           `json:"coach_id,omitempty"`
	NewCoach  *NewCoachInput `json:"new_coach,omitempty"`
}

type JudgeInput struct {
	JudgeID  *int           `json:"judge_id,omitempty"`
	NewJudge *NewJudgeInput `json:"new_judge,omitempty"`
}

type CreateRegistrationInput struct {
	RegionID             int            `json:"region_id"`
	TournamentCategoryID int            `json:"tournament_category_id"`
	Athletes             []AthleteInput `json:"athletes"`
	Judges               []JudgeInput   `json:"judges"`
}

// EditRosterInput replaces the supplied lists. A nil list is left as is,
// an empty judges list removes every judge.
type EditRosterInput struct {
	Athletes []AthleteInput `json:"athletes"`
	Judges   []JudgeInput   `json:"judges"`
}

type ListRegistrationsFilter struct {
	Status       *models.RegistrationStatus
	RegionID     *int
	CategoryID   *int
	TournamentID *int
	Mine         bool
	Limit        int
	Offset       int
}

// RegistrationService реализует подачу заявок, их рассмотрение и журнал аудита.
type RegistrationService struct {
	tx            repositories.Transactor
	registrations repositories.RegistrationRepository
	audit         repositories.AuditRepository
	tournaments   repositories.TournamentRepository
	roster        repositories.RosterEntryRepository
	categories    TournamentProvider
	notifier      notify.Notifier
	logger        *slog.Logger
	now           func() time.Time
}

func NewRegistrationService(
	tx repositories.Transactor,
	registrations repositories.RegistrationRepository,
	audit repositories.AuditRepository,
	tournaments repositories.TournamentRepository,
	roster repositories.RosterEntryRepository,
	categories TournamentProvider,
	notifier notify.Notifier,
	logger *slog.Logger,
) *RegistrationService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &RegistrationService{
		tx:            tx,
		registrations: registrations,
		audit:         audit,
		tournaments:   tournaments,
		roster:        roster,
		categories:    categories,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

// SetClock replaces the time source.
func (s *RegistrationService) SetClock(now func() time.Time) {
	s.now = now
}

// Create submits a roster for a region in a tournament category.
func (s *RegistrationService) Create(ctx context.Context, actor models.Actor, input CreateRegistrationInput) (reg *models.Registration, err error) {
	ctx, span := startSpan(ctx, "registration.create", actor,
		attribute.Int(tracing.AttrCategoryID, input.TournamentCategoryID),
		attribute.Int(tracing.AttrRegionID, input.RegionID))
	defer func() { endSpan(span, err) }()

	if !canSubmitFor(actor, input.RegionID) {
		return nil, ErrUnauthorized
	}

	now := s.now().UTC()
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		category, err := s.loadCategory(ctx, exec, input.TournamentCategoryID)
		if err != nil {
			return err
		}
		if !category.Tournament.RegistrationOpenAt(now) {
			return ErrRegistrationWindowClosed
		}
		limit := CapacityFor(input.RegionID, category.Tournament)
		if err := validateAthletes(input.Athletes, limit); err != nil {
			return err
		}
		if err := validateJudges(input.Judges); err != nil {
			return err
		}
		if err := s.checkReferences(ctx, exec, input.Athletes, input.Judges); err != nil {
			return err
		}

		if _, err := s.registrations.FindActive(ctx, exec, input.RegionID, input.TournamentCategoryID); err == nil {
			return ErrDuplicateActiveRegistration
		} else if !errors.Is(err, repositories.ErrRegistrationNotFound) {
			return fmt.Errorf("failed to check active registration: %w", err)
		}

		athletes, err := s.materializeAthletes(ctx, exec, input.Athletes, input.RegionID)
		if err != nil {
			return err
		}
		judges, err := s.materializeJudges(ctx, exec, input.Judges, input.RegionID)
		if err != nil {
			return err
		}

		seq, err := s.registrations.NextNumber(ctx, exec)
		if err != nil {
			return fmt.Errorf("failed to allocate registration number: %w", err)
		}
		created := &models.Registration{
			Number:               models.FormatRegistrationNumber(seq),
			RegionID:             input.RegionID,
			SubmittedBy:          actor.UserID,
			TournamentCategoryID: input.TournamentCategoryID,
			Status:               models.RegistrationPending,
			CreatedAt:            now,
			UpdatedAt:            now,
			Athletes:             athletes,
			Judges:               judges,
		}
		if err := s.registrations.Create(ctx, exec, created); err != nil {
			return mapRegistrationRepoError(err)
		}

		after := struct {
			Number string `json:"registration_number"`
			statusSnapshot
			rosterSnapshot
		}{created.Number, statusOf(created), rosterSnapshot{Athletes: bareAthletes(athletes), Judges: bareJudges(judges)}}
		if err := s.appendAudit(ctx, exec, created.ID, models.AuditCreate, actor, now, "registration submitted", nil, after); err != nil {
			return err
		}

		reg, err = s.registrations.GetByID(ctx, exec, created.ID)
		if err != nil {
			return mapRegistrationRepoError(err)
		}
		reg.TournamentCategory = category
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "registration created",
		slog.Int("registration_id", reg.ID),
		slog.String("registration_number", reg.Number),
		slog.Int("region_id", reg.RegionID),
		slog.Int("category_id", reg.TournamentCategoryID),
		slog.Int("athletes", len(reg.Athletes)))
	s.publish(ctx, models.EventRegistrationCreated, reg)
	return reg, nil
}

// EditRoster replaces the athletes and/or judges of a PENDING registration.
func (s *RegistrationService) EditRoster(ctx context.Context, actor models.Actor, id int, input EditRosterInput) (reg *models.Registration, err error) {
	ctx, span := startSpan(ctx, "registration.edit", actor, attribute.Int(tracing.AttrRegistrationID, id))
	defer func() { endSpan(span, err) }()

	if input.Athletes == nil && input.Judges == nil {
		return nil, ErrEmptyRosterEdit
	}

	now := s.now().UTC()
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.registrations.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			return mapRegistrationRepoError(err)
		}
		if !canModify(actor, current) {
			return ErrUnauthorized
		}
		if current.Status != models.RegistrationPending {
			return &InvalidStateError{Current: current.Status}
		}

		if input.Athletes != nil {
			category, err := s.loadCategory(ctx, exec, current.TournamentCategoryID)
			if err != nil {
				return err
			}
			limit := CapacityFor(current.RegionID, category.Tournament)
			if err := validateAthletes(input.Athletes, limit); err != nil {
				return err
			}
		}
		if err := validateJudges(input.Judges); err != nil {
			return err
		}
		if err := s.checkReferences(ctx, exec, input.Athletes, input.Judges); err != nil {
			return err
		}

		var before, after rosterSnapshot
		var changed []string
		if input.Athletes != nil {
			athletes, err := s.materializeAthletes(ctx, exec, input.Athletes, current.RegionID)
			if err != nil {
				return err
			}
			if err := s.registrations.ReplaceAthletes(ctx, exec, id, athletes); err != nil {
				return mapRegistrationRepoError(err)
			}
			before.Athletes = bareAthletes(current.Athletes)
			after.Athletes = athletes
			changed = append(changed, "athletes")
		}
		if input.Judges != nil {
			judges, err := s.materializeJudges(ctx, exec, input.Judges, current.RegionID)
			if err != nil {
				return err
			}
			if err := s.registrations.ReplaceJudges(ctx, exec, id, judges); err != nil {
				return mapRegistrationRepoError(err)
			}
			before.Judges = bareJudges(current.Judges)
			after.Judges = judges
			changed = append(changed, "judges")
		}

		current.UpdatedAt = now
		if err := s.registrations.Update(ctx, exec, current); err != nil {
			return mapRegistrationRepoError(err)
		}
		description := "roster edited: " + strings.Join(changed, ", ")
		if err := s.appendAudit(ctx, exec, id, models.AuditEdit, actor, now, description, before, after); err != nil {
			return err
		}

		reg, err = s.registrations.GetByID(ctx, exec, id)
		return mapRegistrationRepoError(err)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "registration roster edited", slog.Int("registration_id", id), slog.Int("actor_id", actor.UserID))
	s.publish(ctx, models.EventRegistrationEdited, reg)
	return reg, nil
}

// Approve accepts a PENDING registration. Only reviewers may approve and
// the roster must name at least one judge.
func (s *RegistrationService) Approve(ctx context.Context, actor models.Actor, id int) (reg *models.Registration, err error) {
	ctx, span := startSpan(ctx, "registration.approve", actor, attribute.Int(tracing.AttrRegistrationID, id))
	defer func() { endSpan(span, err) }()

	if !canReview(actor) {
		return nil, ErrUnauthorized
	}
	return s.transition(ctx, actor, id, models.AuditApprove, nil, func(r *models.Registration, now time.Time) (string, error) {
		if len(r.Judges) == 0 {
			return "", ErrJudgeRequired
		}
		return "registration approved", r.Approve(actor.UserID, now)
	})
}

// Reject declines a PENDING registration with a non-empty reason.
func (s *RegistrationService) Reject(ctx context.Context, actor models.Actor, id int, reason string) (reg *models.Registration, err error) {
	ctx, span := startSpan(ctx, "registration.reject", actor, attribute.Int(tracing.AttrRegistrationID, id))
	defer func() { endSpan(span, err) }()

	if !canReview(actor) {
		return nil, ErrUnauthorized
	}
	reason = strings.TrimSpace(reason)
	return s.transition(ctx, actor, id, models.AuditReject, nil, func(r *models.Registration, now time.Time) (string, error) {
		if reason == "" {
			return "", ErrReasonRequired
		}
		return "registration rejected: " + reason, r.Reject(reason, now)
	})
}

// Withdraw is available to the submitter and to reviewers. The slot is freed at once.
func (s *RegistrationService) Withdraw(ctx context.Context, actor models.Actor, id int) (reg *models.Registration, err error) {
	ctx, span := startSpan(ctx, "registration.withdraw", actor, attribute.Int(tracing.AttrRegistrationID, id))
	defer func() { endSpan(span, err) }()

	authorize := func(r *models.Registration) bool { return canModify(actor, r) }
	return s.transition(ctx, actor, id, models.AuditWithdraw, authorize, func(r *models.Registration, now time.Time) (string, error) {
		return "registration withdrawn", r.Withdraw(now)
	})
}

var transitionEvents = map[models.AuditAction]models.EventType{
	models.AuditApprove:  models.EventRegistrationApproved,
	models.AuditReject:   models.EventRegistrationRejected,
	models.AuditWithdraw: models.EventRegistrationWithdrawn,
}

// transition locks the registration, checks that it is PENDING, applies the
// change and records exactly one audit entry.
func (s *RegistrationService) transition(
	ctx context.Context,
	actor models.Actor,
	id int,
	action models.AuditAction,
	authorize func(*models.Registration) bool,
	apply func(*models.Registration, time.Time) (string, error),
) (*models.Registration, error) {
	now := s.now().UTC()
	var updated *models.Registration
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.registrations.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			return mapRegistrationRepoError(err)
		}
		if authorize != nil && !authorize(current) {
			return ErrUnauthorized
		}
		if current.Status != models.RegistrationPending {
			return &InvalidStateError{Current: current.Status}
		}

		before := statusOf(current)
		description, err := apply(current, now)
		if err != nil {
			return transitionError(err)
		}
		if err := s.registrations.Update(ctx, exec, current); err != nil {
			return mapRegistrationRepoError(err)
		}
		if err := s.appendAudit(ctx, exec, id, action, actor, now, description, before, statusOf(current)); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "registration status changed",
		slog.Int("registration_id", id),
		slog.String("status", string(updated.Status)),
		slog.Int("actor_id", actor.UserID))
	s.publish(ctx, transitionEvents[action], updated)
	return updated, nil
}

// Get returns one registration visible to the actor.
func (s *RegistrationService) Get(ctx context.Context, actor models.Actor, id int) (*models.Registration, error) {
	reg, err := s.registrations.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRegistrationRepoError(err)
	}
	if !canView(actor, reg) {
		return nil, ErrUnauthorized
	}
	s.attachCategories(ctx, []*models.Registration{reg})
	return reg, nil
}

// List returns registrations newest first. Representatives only see their own region.
func (s *RegistrationService) List(ctx context.Context, actor models.Actor, filter ListRegistrationsFilter) ([]*models.Registration, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	repoFilter := repositories.RegistrationFilter{
		Status:       filter.Status,
		RegionID:     filter.RegionID,
		CategoryID:   filter.CategoryID,
		TournamentID: filter.TournamentID,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = defaultListLimit
	}
	if repoFilter.Limit > maxListLimit {
		repoFilter.Limit = maxListLimit
	}
	if repoFilter.Offset < 0 {
		repoFilter.Offset = 0
	}

	userID := actor.UserID
	if filter.Mine {
		repoFilter.SubmittedBy = &userID
	}
	if !actor.Role.IsReviewer() {
		switch {
		case actor.RegionID == nil:
			repoFilter.SubmittedBy = &userID
		case filter.RegionID != nil && *filter.RegionID != *actor.RegionID:
			return nil, ErrUnauthorized
		default:
			region := *actor.RegionID
			repoFilter.RegionID = &region
		}
	}

	regs, err := s.registrations.List(ctx, nil, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	s.attachCategories(ctx, regs)
	return regs, nil
}

// History returns the audit trail of a registration in chronological order.
func (s *RegistrationService) History(ctx context.Context, actor models.Actor, id int) ([]*models.AuditLogEntry, error) {
	reg, err := s.registrations.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRegistrationRepoError(err)
	}
	if !canView(actor, reg) {
		return nil, ErrUnauthorized
	}
	entries, err := s.audit.ListByRegistration(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit log for registration %d: %w", id, err)
	}
	return entries, nil
}

// --- Внутренние хелперы ---

func (s *RegistrationService) loadCategory(ctx context.Context, exec repositories.SQLExecutor, categoryID int) (*models.TournamentCategory, error) {
	category, err := s.tournaments.GetCategory(ctx, exec, categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentCategoryNotFound) {
			return nil, ErrUnknownCategory
		}
		return nil, fmt.Errorf("failed to load tournament category %d: %w", categoryID, err)
	}
	if category.Tournament == nil {
		return nil, fmt.Errorf("tournament category %d has no tournament loaded", categoryID)
	}
	return category, nil
}

// attachCategories fills TournamentCategory from the cached provider. Lookup
// failures only cost the enrichment.
func (s *RegistrationService) attachCategories(ctx context.Context, regs []*models.Registration) {
	if s.categories == nil || len(regs) == 0 {
		return
	}
	ids := make(map[int]struct{})
	for _, r := range regs {
		ids[r.TournamentCategoryID] = struct{}{}
	}

	var mu sync.Mutex
	found := make(map[int]*models.TournamentCategory, len(ids))
	var g errgroup.Group
	g.SetLimit(categoryLookups)
	for id := range ids {
		g.Go(func() error {
			category, err := s.categories.GetCategory(ctx, id)
			if err != nil {
				s.logger.WarnContext(ctx, "failed to load tournament category", slog.Int("category_id", id), slog.Any("error", err))
				return nil
			}
			mu.Lock()
			found[id] = category
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range regs {
		r.TournamentCategory = found[r.TournamentCategoryID]
	}
}

func validateAthletes(athletes []AthleteInput, limit int) error {
	if err := validateRosterSize(len(athletes), limit); err != nil {
		return err
	}
	seen := make(map[int]bool, len(athletes))
	for _, a := range athletes {
		if seen[a.AthleteID] {
			return fmt.Errorf("%w: athlete %d", ErrDuplicateAthlete, a.AthleteID)
		}
		seen[a.AthleteID] = true
	}
	for _, a := range athletes {
		switch {
		case a.CoachID != nil:
		case a.NewCoach != nil:
			if strings.TrimSpace(a.NewCoach.Name) == "" {
				return ErrStubNameRequired
			}
		default:
			return fmt.Errorf("%w (athlete %d)", ErrCoachRequired, a.AthleteID)
		}
	}
	return nil
}

func validateJudges(judges []JudgeInput) error {
	seen := make(map[int]bool, len(judges))
	for _, j := range judges {
		switch {
		case j.JudgeID != nil:
			if seen[*j.JudgeID] {
				return fmt.Errorf("%w: judge %d is listed more than once", ErrValidationFailed, *j.JudgeID)
			}
			seen[*j.JudgeID] = true
		case j.NewJudge != nil:
			if strings.TrimSpace(j.NewJudge.Name) == "" {
				return ErrStubNameRequired
			}
		default:
			return fmt.Errorf("%w: judge entry needs judge_id or new_judge", ErrValidationFailed)
		}
	}
	return nil
}

// checkReferences verifies that every referenced athlete, coach and judge exists.
func (s *RegistrationService) checkReferences(ctx context.Context, exec repositories.SQLExecutor, athletes []AthleteInput, judges []JudgeInput) error {
	var athleteIDs, coachIDs, judgeIDs []int
	for _, a := range athletes {
		athleteIDs = append(athleteIDs, a.AthleteID)
		if a.CoachID != nil {
			coachIDs = append(coachIDs, *a.CoachID)
		}
	}
	for _, j := range judges {
		if j.JudgeID != nil {
			judgeIDs = append(judgeIDs, *j.JudgeID)
		}
	}

	if len(athleteIDs) > 0 {
		found, err := s.roster.Athletes(ctx, exec, athleteIDs)
		if err != nil {
			return fmt.Errorf("failed to resolve athletes: %w", err)
		}
		if id, ok := firstMissing(athleteIDs, found); !ok {
			return fmt.Errorf("%w: athlete %d", ErrInvalidReference, id)
		}
	}
	if len(coachIDs) > 0 {
		found, err := s.roster.Coaches(ctx, exec, coachIDs)
		if err != nil {
			return fmt.Errorf("failed to resolve coaches: %w", err)
		}
		if id, ok := firstMissing(coachIDs, found); !ok {
			return fmt.Errorf("%w: coach %d", ErrInvalidReference, id)
		}
	}
	if len(judgeIDs) > 0 {
		found, err := s.roster.Judges(ctx, exec, judgeIDs)
		if err != nil {
			return fmt.Errorf("failed to resolve judges: %w", err)
		}
		if id, ok := firstMissing(judgeIDs, found); !ok {
			return fmt.Errorf("%w: judge %d", ErrInvalidReference, id)
		}
	}
	return nil
}

func firstMissing[V any](ids []int, found map[int]*V) (int, bool) {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	for _, id := range sorted {
		if _, ok := found[id]; !ok {
			return id, false
		}
	}
	return 0, true
}

// materializeAthletes creates the requested coach stubs and returns the entries
// in submission order. One stub is created per distinct name.
func (s *RegistrationService) materializeAthletes(ctx context.Context, exec repositories.SQLExecutor, inputs []AthleteInput, regionID int) ([]models.AthleteEntry, error) {
	stubs := make(map[string]int)
	entries := make([]models.AthleteEntry, 0, len(inputs))
	for _, in := range inputs {
		entry := models.AthleteEntry{AthleteID: in.AthleteID}
		if in.CoachID != nil {
			entry.CoachID = *in.CoachID
		} else {
			name := strings.TrimSpace(in.NewCoach.Name)
			id, ok := stubs[strings.ToLower(name)]
			if !ok {
				region := regionID
				coach := &models.Coach{Name: name, RegionID: &region}
				if err := s.roster.CreateCoachStub(ctx, exec, coach); err != nil {
					return nil, fmt.Errorf("failed to create coach %q: %w", name, err)
				}
				id = coach.ID
				stubs[strings.ToLower(name)] = id
			}
			entry.CoachID = id
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *RegistrationService) materializeJudges(ctx context.Context, exec repositories.SQLExecutor, inputs []JudgeInput, regionID int) ([]models.JudgeEntry, error) {
	entries := make([]models.JudgeEntry, 0, len(inputs))
	for _, in := range inputs {
		if in.JudgeID != nil {
			entries = append(entries, models.JudgeEntry{JudgeID: *in.JudgeID})
			continue
		}
		region := regionID
		judge := &models.Judge{
			Name:     strings.TrimSpace(in.NewJudge.Name),
			Category: strings.TrimSpace(in.NewJudge.Category),
			RegionID: &region,
		}
		if err := s.roster.CreateJudgeStub(ctx, exec, judge); err != nil {
			return nil, fmt.Errorf("failed to create judge %q: %w", judge.Name, err)
		}
		entries = append(entries, models.JudgeEntry{JudgeID: judge.ID})
	}
	return entries, nil
}

func (s *RegistrationService) appendAudit(ctx context.Context, exec repositories.SQLExecutor, registrationID int, action models.AuditAction, actor models.Actor, at time.Time, description string, before, after interface{}) error {
	entry, err := newAuditEntry(registrationID, action, actor, at, description, before, after)
	if err != nil {
		return err
	}
	if err := s.audit.Append(ctx, exec, entry); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

func (s *RegistrationService) publish(ctx context.Context, eventType models.EventType, reg *models.Registration) {
	publishEvent(ctx, s.notifier, s.logger, models.Event{
		Type:                 eventType,
		RegistrationID:       reg.ID,
		TournamentCategoryID: reg.TournamentCategoryID,
		RegionID:             reg.RegionID,
		Status:               reg.Status,
		Payload:              map[string]interface{}{"registration_number": reg.Number},
		OccurredAt:           s.now().UTC(),
	})
}
