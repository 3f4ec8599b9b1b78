package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/federation-registry/models"
)

var (
	ErrResultConflict       = errors.New("result conflict: place or athlete already recorded for this category")
	ErrResultAthleteInvalid = errors.New("result athlete conflict or invalid")
)

type StandingsFilter struct {
	Season      int
	AgeCategory *string
	Gender      *string
	BowType     *string
}

type ResultRepository interface {
	// ReplaceForCategory deletes every result of the category and inserts results.
	// Callers run it inside a transaction that holds the category lock.
	ReplaceForCategory(ctx context.Context, exec SQLExecutor, categoryID int, results []*models.Result) error
	ListByCategory(ctx context.Context, exec SQLExecutor, categoryID int) ([]*models.Result, error)
	SumPointsByAthlete(ctx context.Context, exec SQLExecutor, filter StandingsFilter) ([]*models.Standing, error)
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) ReplaceForCategory(ctx context.Context, exec SQLExecutor, categoryID int, results []*models.Result) error {
	executor := getExecutor(r.db, exec)

	if _, err := executor.ExecContext(ctx, `DELETE FROM tournament_results WHERE tournament_category_id = $1`, categoryID); err != nil {
		return fmt.Errorf("failed to delete results of category %d: %w", categoryID, err)
	}

	query := `
		INSERT INTO tournament_results (tournament_category_id, athlete_id, place, points, raw_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	for _, res := range results {
		err := executor.QueryRowContext(ctx, query,
			categoryID, res.AthleteID, res.Place, res.Points, res.RawScore, res.CreatedAt,
		).Scan(&res.ID)
		if err != nil {
			if pqErr, ok := asPQError(err); ok {
				switch pqErr.Code {
				case pqUniqueViolation:
					return ErrResultConflict
				case pqForeignKeyViolation:
					if pqErr.Constraint == "tournament_results_athlete_id_fkey" {
						return ErrResultAthleteInvalid
					}
				}
			}
			return fmt.Errorf("failed to insert result for athlete %d: %w", res.AthleteID, err)
		}
	}
	return nil
}

func (r *postgresResultRepository) ListByCategory(ctx context.Context, exec SQLExecutor, categoryID int) ([]*models.Result, error) {
	query := `
		SELECT tr.id, tr.tournament_category_id, tr.athlete_id, tr.place, tr.points, tr.raw_score, tr.created_at,
		       a.name, COALESCE(a.gender, ''), COALESCE(a.age_category, ''), a.region_id
		FROM tournament_results tr
		JOIN athletes a ON a.id = tr.athlete_id
		WHERE tr.tournament_category_id = $1
		ORDER BY tr.place ASC`

	rows, err := getExecutor(r.db, exec).QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results of category %d: %w", categoryID, err)
	}
	defer rows.Close()

	results := make([]*models.Result, 0)
	for rows.Next() {
		var res models.Result
		a := &models.Athlete{}
		if err := rows.Scan(
			&res.ID, &res.TournamentCategoryID, &res.AthleteID, &res.Place, &res.Points, &res.RawScore, &res.CreatedAt,
			&a.Name, &a.Gender, &a.AgeCategory, &a.RegionID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		a.ID = res.AthleteID
		res.Athlete = a
		results = append(results, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}
	return results, nil
}

// SumPointsByAthlete aggregates points over the season; rank is assigned by the caller.
func (r *postgresResultRepository) SumPointsByAthlete(ctx context.Context, exec SQLExecutor, filter StandingsFilter) ([]*models.Standing, error) {
	var queryBuilder strings.Builder
	args := []interface{}{filter.Season}
	queryBuilder.WriteString(`
		SELECT tr.athlete_id, a.name, SUM(tr.points) AS total, COUNT(*) AS counted
		FROM tournament_results tr
		JOIN tournament_categories tc ON tc.id = tr.tournament_category_id
		JOIN tournaments t ON t.id = tc.tournament_id
		JOIN athletes a ON a.id = tr.athlete_id
		WHERE EXTRACT(YEAR FROM t.start_date) = $1`)
	if filter.AgeCategory != nil {
		args = append(args, *filter.AgeCategory)
		queryBuilder.WriteString(fmt.Sprintf(" AND tc.age_category = $%d", len(args)))
	}
	if filter.Gender != nil {
		args = append(args, *filter.Gender)
		queryBuilder.WriteString(fmt.Sprintf(" AND tc.gender = $%d", len(args)))
	}
	if filter.BowType != nil {
		args = append(args, *filter.BowType)
		queryBuilder.WriteString(fmt.Sprintf(" AND tc.bow_type = $%d", len(args)))
	}
	queryBuilder.WriteString(" GROUP BY tr.athlete_id, a.name ORDER BY total DESC, tr.athlete_id ASC")

	rows, err := getExecutor(r.db, exec).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate standings: %w", err)
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		var s models.Standing
		if err := rows.Scan(&s.AthleteID, &s.AthleteName, &s.Points, &s.Results); err != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", err)
		}
		standings = append(standings, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating standing rows: %w", err)
	}
	return standings, nil
}
