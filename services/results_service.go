package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/notify"
	"github.com/Dosada05/federation-registry/repositories"
	"github.com/Dosada05/federation-registry/tracing"
)

// ResultInput is one line of a category's final placing. Points are derived from Place.
type ResultInput struct {
	AthleteID int      `json:"athlete_id"`
	Place     int      `json:"place"`
	RawScore  *float64 `json:"raw_score,omitempty"`
}

type StandingsFilter struct {
	Season      int
	AgeCategory *string
	Gender      *string
	BowType     *string
}

// ResultsService записывает результаты категорий и считает рейтинговые очки.
type ResultsService struct {
	tx          repositories.Transactor
	results     repositories.ResultRepository
	tournaments repositories.TournamentRepository
	roster      repositories.RosterEntryRepository
	categories  TournamentProvider
	notifier    notify.Notifier
	logger      *slog.Logger
	now         func() time.Time
}

func NewResultsService(
	tx repositories.Transactor,
	results repositories.ResultRepository,
	tournaments repositories.TournamentRepository,
	roster repositories.RosterEntryRepository,
	categories TournamentProvider,
	notifier notify.Notifier,
	logger *slog.Logger,
) *ResultsService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &ResultsService{
		tx:          tx,
		results:     results,
		tournaments: tournaments,
		roster:      roster,
		categories:  categories,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *ResultsService) SetClock(now func() time.Time) {
	s.now = now
}

// SubmitResults replaces the stored results of a category with entries.
// Submitting the same entries again leaves the same rows behind.
func (s *ResultsService) SubmitResults(ctx context.Context, actor models.Actor, categoryID int, entries []ResultInput) (stored []*models.Result, err error) {
	ctx, span := startSpan(ctx, "results.submit", actor,
		attribute.Int(tracing.AttrCategoryID, categoryID),
		attribute.Int(tracing.AttrResultCount, len(entries)))
	defer func() { endSpan(span, err) }()

	if !canReview(actor) {
		return nil, ErrUnauthorized
	}
	if err := validateResults(entries); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournaments.LockCategory(ctx, exec, categoryID); err != nil {
			if errors.Is(err, repositories.ErrTournamentCategoryNotFound) {
				return ErrUnknownCategory
			}
			return fmt.Errorf("failed to lock category %d: %w", categoryID, err)
		}

		if len(entries) > 0 {
			ids := make([]int, len(entries))
			for i, e := range entries {
				ids[i] = e.AthleteID
			}
			found, err := s.roster.Athletes(ctx, exec, ids)
			if err != nil {
				return fmt.Errorf("failed to resolve athletes: %w", err)
			}
			if id, ok := firstMissing(ids, found); !ok {
				return fmt.Errorf("%w: athlete %d", ErrInvalidAthleteReference, id)
			}
		}

		rows := make([]*models.Result, 0, len(entries))
		for _, e := range entries {
			points, _ := models.PointsForPlace(e.Place)
			rows = append(rows, &models.Result{
				TournamentCategoryID: categoryID,
				AthleteID:            e.AthleteID,
				Place:                e.Place,
				Points:               points,
				RawScore:             e.RawScore,
				CreatedAt:            now,
			})
		}
		if err := s.results.ReplaceForCategory(ctx, exec, categoryID, rows); err != nil {
			switch {
			case errors.Is(err, repositories.ErrResultAthleteInvalid):
				return ErrInvalidAthleteReference
			case errors.Is(err, repositories.ErrResultConflict):
				return ErrDuplicatePlace
			}
			return fmt.Errorf("failed to store results for category %d: %w", categoryID, err)
		}

		stored, err = s.results.ListByCategory(ctx, exec, categoryID)
		if err != nil {
			return fmt.Errorf("failed to reload results for category %d: %w", categoryID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "category results replaced",
		slog.Int("category_id", categoryID),
		slog.Int("results", len(stored)),
		slog.Int("actor_id", actor.UserID))
	publishEvent(ctx, s.notifier, s.logger, models.Event{
		Type:                 models.EventResultsReplaced,
		TournamentCategoryID: categoryID,
		Payload:              map[string]interface{}{"results": len(stored)},
		OccurredAt:           now,
	})
	return stored, nil
}

// validateResults: places are positive and distinct, athletes are distinct.
func validateResults(entries []ResultInput) error {
	places := make(map[int]bool, len(entries))
	athletes := make(map[int]bool, len(entries))
	for _, e := range entries {
		if _, ok := models.PointsForPlace(e.Place); !ok {
			return fmt.Errorf("%w (athlete %d, place %d)", ErrInvalidPlace, e.AthleteID, e.Place)
		}
		if places[e.Place] {
			return fmt.Errorf("%w: place %d", ErrDuplicatePlace, e.Place)
		}
		if athletes[e.AthleteID] {
			return fmt.Errorf("%w: athlete %d", ErrDuplicateAthlete, e.AthleteID)
		}
		places[e.Place] = true
		athletes[e.AthleteID] = true
	}
	return nil
}

// Results returns the stored results of a category ordered by place.
func (s *ResultsService) Results(ctx context.Context, categoryID int) ([]*models.Result, error) {
	if _, err := s.categories.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, ErrUnknownCategory) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load category %d: %w", categoryID, err)
	}
	results, err := s.results.ListByCategory(ctx, nil, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results for category %d: %w", categoryID, err)
	}
	return results, nil
}

// Standings sums points per athlete over the season. Ties share no rank:
// equal totals are ordered by athlete id.
func (s *ResultsService) Standings(ctx context.Context, filter StandingsFilter) ([]*models.Standing, error) {
	if filter.Season == 0 {
		filter.Season = s.now().UTC().Year()
	}
	standings, err := s.results.SumPointsByAthlete(ctx, nil, repositories.StandingsFilter{
		Season:      filter.Season,
		AgeCategory: filter.AgeCategory,
		Gender:      filter.Gender,
		BowType:     filter.BowType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute standings for season %d: %w", filter.Season, err)
	}
	for i, st := range standings {
		st.Rank = i + 1
	}
	return standings, nil
}
