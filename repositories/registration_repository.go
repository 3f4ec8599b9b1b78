package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/federation-registry/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound         = errors.New("registration not found")
	ErrActiveRegistrationExists     = errors.New("an active registration already exists for this region and category")
	ErrRegistrationCategoryInvalid  = errors.New("registration tournament category conflict or invalid")
	ErrRegistrationRosterRefInvalid = errors.New("registration roster references an unknown athlete, coach or judge")
)

// activeRegistrationConstraint is the partial unique index over
// (region_id, tournament_category_id) for PENDING and APPROVED rows.
const activeRegistrationConstraint = "registrations_active_region_category_key"

type RegistrationFilter struct {
	Status       *models.RegistrationStatus
	RegionID     *int
	CategoryID   *int
	TournamentID *int
	SubmittedBy  *int
	Limit        int
	Offset       int
}

type RegistrationRepository interface {
	NextNumber(ctx context.Context, exec SQLExecutor) (int64, error)
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Registration, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Registration, error)
	FindActive(ctx context.Context, exec SQLExecutor, regionID, categoryID int) (*models.Registration, error)
	Update(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	ReplaceAthletes(ctx context.Context, exec SQLExecutor, registrationID int, entries []models.AthleteEntry) error
	ReplaceJudges(ctx context.Context, exec SQLExecutor, registrationID int, entries []models.JudgeEntry) error
	List(ctx context.Context, exec SQLExecutor, filter RegistrationFilter) ([]*models.Registration, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

const registrationColumns = `r.id, r.registration_number, r.region_id, r.submitted_by, r.tournament_category_id,
	r.status, r.rejection_reason, r.approved_by, r.approved_at, r.created_at, r.updated_at`

func (r *postgresRegistrationRepository) NextNumber(ctx context.Context, exec SQLExecutor) (int64, error) {
	var seq int64
	err := getExecutor(r.db, exec).QueryRowContext(ctx, `SELECT nextval('registration_number_seq')`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate registration number: %w", err)
	}
	return seq, nil
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	executor := getExecutor(r.db, exec)
	query := `
		INSERT INTO registrations (
			registration_number, region_id, submitted_by, tournament_category_id,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		reg.Number, reg.RegionID, reg.SubmittedBy, reg.TournamentCategoryID,
		reg.Status, reg.CreatedAt, reg.UpdatedAt,
	).Scan(&reg.ID)
	if err != nil {
		return handleRegistrationError(err)
	}

	if err := r.ReplaceAthletes(ctx, executor, reg.ID, reg.Athletes); err != nil {
		return err
	}
	return r.ReplaceJudges(ctx, executor, reg.ID, reg.Judges)
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations r WHERE r.id = $1`
	return r.getOne(ctx, getExecutor(r.db, exec), query, id)
}

// GetByIDForUpdate locks the registration row until the surrounding transaction ends.
func (r *postgresRegistrationRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations r WHERE r.id = $1 FOR UPDATE`
	return r.getOne(ctx, getExecutor(r.db, exec), query, id)
}

func (r *postgresRegistrationRepository) FindActive(ctx context.Context, exec SQLExecutor, regionID, categoryID int) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + `
		FROM registrations r
		WHERE r.region_id = $1 AND r.tournament_category_id = $2 AND r.status IN ('PENDING', 'APPROVED')
		LIMIT 1`
	return r.getOne(ctx, getExecutor(r.db, exec), query, regionID, categoryID)
}

func (r *postgresRegistrationRepository) Update(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	query := `
		UPDATE registrations
		SET status = $1, rejection_reason = $2, approved_by = $3, approved_at = $4, updated_at = $5
		WHERE id = $6`
	result, err := getExecutor(r.db, exec).ExecContext(ctx, query,
		reg.Status, reg.RejectionReason, reg.ApprovedBy, reg.ApprovedAt, reg.UpdatedAt, reg.ID,
	)
	if err != nil {
		return handleRegistrationError(err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) ReplaceAthletes(ctx context.Context, exec SQLExecutor, registrationID int, entries []models.AthleteEntry) error {
	executor := getExecutor(r.db, exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM registration_athletes WHERE registration_id = $1`, registrationID); err != nil {
		return fmt.Errorf("failed to clear athletes of registration %d: %w", registrationID, err)
	}
	for i, e := range entries {
		_, err := executor.ExecContext(ctx,
			`INSERT INTO registration_athletes (registration_id, athlete_id, coach_id, position) VALUES ($1, $2, $3, $4)`,
			registrationID, e.AthleteID, e.CoachID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert athlete %d into registration %d: %w", e.AthleteID, registrationID, handleRegistrationError(err))
		}
	}
	return nil
}

func (r *postgresRegistrationRepository) ReplaceJudges(ctx context.Context, exec SQLExecutor, registrationID int, entries []models.JudgeEntry) error {
	executor := getExecutor(r.db, exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM registration_judges WHERE registration_id = $1`, registrationID); err != nil {
		return fmt.Errorf("failed to clear judges of registration %d: %w", registrationID, err)
	}
	for i, e := range entries {
		_, err := executor.ExecContext(ctx,
			`INSERT INTO registration_judges (registration_id, judge_id, position) VALUES ($1, $2, $3)`,
			registrationID, e.JudgeID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert judge %d into registration %d: %w", e.JudgeID, registrationID, handleRegistrationError(err))
		}
	}
	return nil
}

func (r *postgresRegistrationRepository) List(ctx context.Context, exec SQLExecutor, filter RegistrationFilter) ([]*models.Registration, error) {
	executor := getExecutor(r.db, exec)

	var queryBuilder strings.Builder
	args := []interface{}{}
	queryBuilder.WriteString(`SELECT ` + registrationColumns + `
		FROM registrations r
		JOIN tournament_categories tc ON tc.id = r.tournament_category_id
		WHERE 1=1`)

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		queryBuilder.WriteString(fmt.Sprintf(" AND %s $%d", clause, len(args)))
	}
	if filter.Status != nil {
		addArg("r.status =", *filter.Status)
	}
	if filter.RegionID != nil {
		addArg("r.region_id =", *filter.RegionID)
	}
	if filter.CategoryID != nil {
		addArg("r.tournament_category_id =", *filter.CategoryID)
	}
	if filter.TournamentID != nil {
		addArg("tc.tournament_id =", *filter.TournamentID)
	}
	if filter.SubmittedBy != nil {
		addArg("r.submitted_by =", *filter.SubmittedBy)
	}
	queryBuilder.WriteString(" ORDER BY r.created_at DESC, r.id DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	byID := make(map[int]*models.Registration)
	ids := make([]int64, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		registrations = append(registrations, reg)
		byID[reg.ID] = reg
		ids = append(ids, int64(reg.ID))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	if len(ids) == 0 {
		return registrations, nil
	}

	if err := r.loadEntries(ctx, executor, ids, byID); err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) getOne(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) (*models.Registration, error) {
	reg, err := scanRegistration(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if err := r.loadEntries(ctx, executor, []int64{int64(reg.ID)}, map[int]*models.Registration{reg.ID: reg}); err != nil {
		return nil, err
	}
	return reg, nil
}

// loadEntries fills Athletes and Judges for every registration in byID.
func (r *postgresRegistrationRepository) loadEntries(ctx context.Context, executor SQLExecutor, ids []int64, byID map[int]*models.Registration) error {
	for _, reg := range byID {
		reg.Athletes = make([]models.AthleteEntry, 0)
		reg.Judges = make([]models.JudgeEntry, 0)
	}

	athleteRows, err := executor.QueryContext(ctx, `
		SELECT ra.registration_id, ra.athlete_id, ra.coach_id, a.name, COALESCE(a.gender, ''), COALESCE(a.age_category, ''), c.name
		FROM registration_athletes ra
		JOIN athletes a ON a.id = ra.athlete_id
		JOIN coaches c ON c.id = ra.coach_id
		WHERE ra.registration_id = ANY($1)
		ORDER BY ra.registration_id, ra.position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load registration athletes: %w", err)
	}
	defer athleteRows.Close()
	for athleteRows.Next() {
		var regID int
		var e models.AthleteEntry
		a := &models.Athlete{}
		c := &models.Coach{}
		if err := athleteRows.Scan(&regID, &e.AthleteID, &e.CoachID, &a.Name, &a.Gender, &a.AgeCategory, &c.Name); err != nil {
			return fmt.Errorf("failed to scan registration athlete: %w", err)
		}
		a.ID, c.ID = e.AthleteID, e.CoachID
		e.Athlete, e.Coach = a, c
		if reg, ok := byID[regID]; ok {
			reg.Athletes = append(reg.Athletes, e)
		}
	}
	if err := athleteRows.Err(); err != nil {
		return fmt.Errorf("error iterating registration athletes: %w", err)
	}

	judgeRows, err := executor.QueryContext(ctx, `
		SELECT rj.registration_id, rj.judge_id, j.name, COALESCE(j.category, '')
		FROM registration_judges rj
		JOIN judges j ON j.id = rj.judge_id
		WHERE rj.registration_id = ANY($1)
		ORDER BY rj.registration_id, rj.position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load registration judges: %w", err)
	}
	defer judgeRows.Close()
	for judgeRows.Next() {
		var regID int
		var e models.JudgeEntry
		j := &models.Judge{}
		if err := judgeRows.Scan(&regID, &e.JudgeID, &j.Name, &j.Category); err != nil {
			return fmt.Errorf("failed to scan registration judge: %w", err)
		}
		j.ID = e.JudgeID
		e.Judge = j
		if reg, ok := byID[regID]; ok {
			reg.Judges = append(reg.Judges, e)
		}
	}
	if err := judgeRows.Err(); err != nil {
		return fmt.Errorf("error iterating registration judges: %w", err)
	}
	return nil
}

func scanRegistration(rowScanner interface{ Scan(dest ...interface{}) error }) (*models.Registration, error) {
	var reg models.Registration
	err := rowScanner.Scan(
		&reg.ID,
		&reg.Number,
		&reg.RegionID,
		&reg.SubmittedBy,
		&reg.TournamentCategoryID,
		&reg.Status,
		&reg.RejectionReason,
		&reg.ApprovedBy,
		&reg.ApprovedAt,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func handleRegistrationError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == activeRegistrationConstraint {
				return ErrActiveRegistrationExists
			}
		case pqForeignKeyViolation:
			switch pqErr.Constraint {
			case "registrations_tournament_category_id_fkey":
				return ErrRegistrationCategoryInvalid
			case "registration_athletes_athlete_id_fkey",
				"registration_athletes_coach_id_fkey",
				"registration_judges_judge_id_fkey":
				return ErrRegistrationRosterRefInvalid
			}
		}
	}
	return fmt.Errorf("registration query failed: %w", err)
}
