// File: repositories/roster_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/federation-registry/models"
	"github.com/lib/pq"
)

// RosterEntryRepository resolves the people referenced by registrations and
// creates name-only stubs for coaches and judges entered inline.
type RosterEntryRepository interface {
	// Athletes/Coaches/Judges return the subset of ids that exist, keyed by id.
	Athletes(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Athlete, error)
	Coaches(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Coach, error)
	Judges(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Judge, error)
	CreateCoachStub(ctx context.Context, exec SQLExecutor, coach *models.Coach) error
	CreateJudgeStub(ctx context.Context, exec SQLExecutor, judge *models.Judge) error
}

type postgresRosterEntryRepository struct {
	db *sql.DB
}

func NewPostgresRosterEntryRepository(db *sql.DB) RosterEntryRepository {
	return &postgresRosterEntryRepository{db: db}
}

func toInt64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func (r *postgresRosterEntryRepository) Athletes(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Athlete, error) {
	found := make(map[int]*models.Athlete, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := getExecutor(r.db, exec).QueryContext(ctx,
		`SELECT id, name, COALESCE(gender, ''), COALESCE(age_category, ''), region_id FROM athletes WHERE id = ANY($1)`,
		pq.Array(toInt64s(ids)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up athletes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a models.Athlete
		if err := rows.Scan(&a.ID, &a.Name, &a.Gender, &a.AgeCategory, &a.RegionID); err != nil {
			return nil, fmt.Errorf("failed to scan athlete: %w", err)
		}
		found[a.ID] = &a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating athletes: %w", err)
	}
	return found, nil
}

func (r *postgresRosterEntryRepository) Coaches(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Coach, error) {
	found := make(map[int]*models.Coach, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := getExecutor(r.db, exec).QueryContext(ctx,
		`SELECT id, name, region_id FROM coaches WHERE id = ANY($1)`, pq.Array(toInt64s(ids)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up coaches: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.Coach
		if err := rows.Scan(&c.ID, &c.Name, &c.RegionID); err != nil {
			return nil, fmt.Errorf("failed to scan coach: %w", err)
		}
		found[c.ID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coaches: %w", err)
	}
	return found, nil
}

func (r *postgresRosterEntryRepository) Judges(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Judge, error) {
	found := make(map[int]*models.Judge, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := getExecutor(r.db, exec).QueryContext(ctx,
		`SELECT id, name, COALESCE(category, ''), region_id FROM judges WHERE id = ANY($1)`, pq.Array(toInt64s(ids)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up judges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var j models.Judge
		if err := rows.Scan(&j.ID, &j.Name, &j.Category, &j.RegionID); err != nil {
			return nil, fmt.Errorf("failed to scan judge: %w", err)
		}
		found[j.ID] = &j
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating judges: %w", err)
	}
	return found, nil
}

func (r *postgresRosterEntryRepository) CreateCoachStub(ctx context.Context, exec SQLExecutor, coach *models.Coach) error {
	err := getExecutor(r.db, exec).QueryRowContext(ctx,
		`INSERT INTO coaches (name, region_id) VALUES ($1, $2) RETURNING id`, coach.Name, coach.RegionID,
	).Scan(&coach.ID)
	if err != nil {
		return fmt.Errorf("failed to create coach stub %q: %w", coach.Name, err)
	}
	return nil
}

func (r *postgresRosterEntryRepository) CreateJudgeStub(ctx context.Context, exec SQLExecutor, judge *models.Judge) error {
	var category interface{}
	if judge.Category != "" {
		category = judge.Category
	}
	err := getExecutor(r.db, exec).QueryRowContext(ctx,
		`INSERT INTO judges (name, category, region_id) VALUES ($1, $2, $3) RETURNING id`, judge.Name, category, judge.RegionID,
	).Scan(&judge.ID)
	if err != nil {
		return fmt.Errorf("failed to create judge stub %q: %w", judge.Name, err)
	}
	return nil
}
