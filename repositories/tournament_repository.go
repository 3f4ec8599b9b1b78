package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/federation-registry/models"
)

var ErrTournamentCategoryNotFound = errors.New("tournament category not found")

// TournamentRepository reads the tournament data owned by the federation's
// tournament lifecycle module.
type TournamentRepository interface {
	GetCategory(ctx context.Context, exec SQLExecutor, categoryID int) (*models.TournamentCategory, error)
	// LockCategory takes a row lock on the category for the rest of the transaction.
	LockCategory(ctx context.Context, exec SQLExecutor, categoryID int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) GetCategory(ctx context.Context, exec SQLExecutor, categoryID int) (*models.TournamentCategory, error) {
	query := `
		SELECT
			tc.id, tc.tournament_id, tc.age_category, tc.gender, tc.bow_type,
			t.id, t.title, t.organizing_region_id, t.start_date, t.end_date,
			t.is_registration_open, t.registration_deadline
		FROM tournament_categories tc
		JOIN tournaments t ON t.id = tc.tournament_id
		WHERE tc.id = $1`

	var c models.TournamentCategory
	var t models.Tournament
	err := getExecutor(r.db, exec).QueryRowContext(ctx, query, categoryID).Scan(
		&c.ID, &c.TournamentID, &c.AgeCategory, &c.Gender, &c.BowType,
		&t.ID, &t.Title, &t.OrganizingRegionID, &t.StartDate, &t.EndDate,
		&t.IsRegistrationOpen, &t.RegistrationDeadline,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get tournament category %d: %w", categoryID, err)
	}
	c.Tournament = &t
	return &c, nil
}

func (r *postgresTournamentRepository) LockCategory(ctx context.Context, exec SQLExecutor, categoryID int) error {
	var id int
	err := getExecutor(r.db, exec).QueryRowContext(ctx,
		`SELECT id FROM tournament_categories WHERE id = $1 FOR UPDATE`, categoryID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTournamentCategoryNotFound
		}
		return fmt.Errorf("failed to lock tournament category %d: %w", categoryID, err)
	}
	return nil
}
