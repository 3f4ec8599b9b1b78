// Package memory provides an in-process implementation of the repository
// interfaces. Transactions are serialized and rolled back by restoring a
// snapshot, so it keeps the atomicity and uniqueness guarantees of the
// PostgreSQL schema. Used by tests and by the "memory" storage driver.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/repositories"
)

type state struct {
	registrations map[int]*models.Registration
	audit         []*models.AuditLogEntry
	results       map[int][]*models.Result
	tournaments   map[int]*models.Tournament
	categories    map[int]*models.TournamentCategory
	athletes      map[int]*models.Athlete
	coaches       map[int]*models.Coach
	judges        map[int]*models.Judge

	nextRegistrationID int
	nextResultID       int
	nextCoachID        int
	nextJudgeID        int
	registrationSeq    int64
}

// Store is a mutex-guarded in-memory database.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   state
}

var (
	_ repositories.Transactor             = (*Store)(nil)
	_ repositories.RegistrationRepository = (*Store)(nil)
	_ repositories.AuditRepository        = (*Store)(nil)
	_ repositories.ResultRepository       = (*Store)(nil)
	_ repositories.TournamentRepository   = (*Store)(nil)
	_ repositories.RosterEntryRepository  = (*Store)(nil)
)

func New() *Store {
	return &Store{st: state{
		registrations: make(map[int]*models.Registration),
		results:       make(map[int][]*models.Result),
		tournaments:   make(map[int]*models.Tournament),
		categories:    make(map[int]*models.TournamentCategory),
		athletes:      make(map[int]*models.Athlete),
		coaches:       make(map[int]*models.Coach),
		judges:        make(map[int]*models.Judge),
	}}
}

// WithinTx runs fn with exclusive access to the store. If fn fails every
// change it made is discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	saved := s.st.clone()
	s.mu.RUnlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.st = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

func (st state) clone() state {
	c := st
	c.registrations = make(map[int]*models.Registration, len(st.registrations))
	for id, r := range st.registrations {
		c.registrations[id] = r.Clone()
	}
	c.audit = append([]*models.AuditLogEntry(nil), st.audit...)
	c.results = make(map[int][]*models.Result, len(st.results))
	for id, rs := range st.results {
		c.results[id] = append([]*models.Result(nil), rs...)
	}
	c.tournaments = copyMap(st.tournaments)
	c.categories = copyMap(st.categories)
	c.athletes = copyMap(st.athletes)
	c.coaches = copyMap(st.coaches)
	c.judges = copyMap(st.judges)
	return c
}

func copyMap[V any](m map[int]V) map[int]V {
	c := make(map[int]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Seeding helpers for the reference data owned by other modules.

func (s *Store) AddTournament(t models.Tournament) *models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.tournaments[t.ID] = &t
	return &t
}

func (s *Store) AddCategory(c models.TournamentCategory) *models.TournamentCategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Tournament = nil
	s.st.categories[c.ID] = &c
	return &c
}

func (s *Store) AddAthlete(a models.Athlete) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.athletes[a.ID] = &a
}

func (s *Store) AddCoach(c models.Coach) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.coaches[c.ID] = &c
	if c.ID > s.st.nextCoachID {
		s.st.nextCoachID = c.ID
	}
}

func (s *Store) AddJudge(j models.Judge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.judges[j.ID] = &j
	if j.ID > s.st.nextJudgeID {
		s.st.nextJudgeID = j.ID
	}
}

// UpdateTournament lets tests open or close registration windows.
func (s *Store) UpdateTournament(id int, fn func(t *models.Tournament)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.st.tournaments[id]; ok {
		c := *t
		fn(&c)
		s.st.tournaments[id] = &c
	}
}

// Registration operations

func (s *Store) NextNumber(ctx context.Context, exec repositories.SQLExecutor) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.registrationSeq++
	return s.st.registrationSeq, nil
}

func (s *Store) Create(ctx context.Context, exec repositories.SQLExecutor, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.categories[reg.TournamentCategoryID]; !ok {
		return repositories.ErrRegistrationCategoryInvalid
	}
	if reg.Status.HoldsSlot() {
		for _, existing := range s.st.registrations {
			if existing.RegionID == reg.RegionID &&
				existing.TournamentCategoryID == reg.TournamentCategoryID &&
				existing.Status.HoldsSlot() {
				return repositories.ErrActiveRegistrationExists
			}
		}
	}
	if err := s.checkRosterRefs(reg.Athletes, reg.Judges); err != nil {
		return err
	}

	s.st.nextRegistrationID++
	reg.ID = s.st.nextRegistrationID
	s.st.registrations[reg.ID] = stripRefs(reg)
	return nil
}

func (s *Store) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.st.registrations[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	return s.withRefs(reg), nil
}

// GetByIDForUpdate needs no extra locking: transactions are already exclusive.
func (s *Store) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Registration, error) {
	return s.GetByID(ctx, exec, id)
}

func (s *Store) FindActive(ctx context.Context, exec repositories.SQLExecutor, regionID, categoryID int) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, reg := range s.st.registrations {
		if reg.RegionID == regionID && reg.TournamentCategoryID == categoryID && reg.Status.HoldsSlot() {
			return s.withRefs(reg), nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (s *Store) Update(ctx context.Context, exec repositories.SQLExecutor, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.st.registrations[reg.ID]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	if reg.Status.HoldsSlot() && !existing.Status.HoldsSlot() {
		for id, other := range s.st.registrations {
			if id != reg.ID && other.RegionID == existing.RegionID &&
				other.TournamentCategoryID == existing.TournamentCategoryID && other.Status.HoldsSlot() {
				return repositories.ErrActiveRegistrationExists
			}
		}
	}
	src := reg.Clone()
	updated := existing.Clone()
	updated.Status = src.Status
	updated.RejectionReason = src.RejectionReason
	updated.ApprovedBy = src.ApprovedBy
	updated.ApprovedAt = src.ApprovedAt
	updated.UpdatedAt = src.UpdatedAt
	s.st.registrations[reg.ID] = updated
	return nil
}

func (s *Store) ReplaceAthletes(ctx context.Context, exec repositories.SQLExecutor, registrationID int, entries []models.AthleteEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.st.registrations[registrationID]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	if err := s.checkRosterRefs(entries, nil); err != nil {
		return err
	}
	updated := existing.Clone()
	updated.Athletes = stripAthleteRefs(entries)
	s.st.registrations[registrationID] = updated
	return nil
}

func (s *Store) ReplaceJudges(ctx context.Context, exec repositories.SQLExecutor, registrationID int, entries []models.JudgeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.st.registrations[registrationID]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	if err := s.checkRosterRefs(nil, entries); err != nil {
		return err
	}
	updated := existing.Clone()
	updated.Judges = stripJudgeRefs(entries)
	s.st.registrations[registrationID] = updated
	return nil
}

func (s *Store) List(ctx context.Context, exec repositories.SQLExecutor, filter repositories.RegistrationFilter) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Registration, 0)
	for _, reg := range s.st.registrations {
		if filter.Status != nil && reg.Status != *filter.Status {
			continue
		}
		if filter.RegionID != nil && reg.RegionID != *filter.RegionID {
			continue
		}
		if filter.CategoryID != nil && reg.TournamentCategoryID != *filter.CategoryID {
			continue
		}
		if filter.SubmittedBy != nil && reg.SubmittedBy != *filter.SubmittedBy {
			continue
		}
		if filter.TournamentID != nil {
			c, ok := s.st.categories[reg.TournamentCategoryID]
			if !ok || c.TournamentID != *filter.TournamentID {
				continue
			}
		}
		out = append(out, s.withRefs(reg))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*models.Registration{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) checkRosterRefs(athletes []models.AthleteEntry, judges []models.JudgeEntry) error {
	for _, a := range athletes {
		if _, ok := s.st.athletes[a.AthleteID]; !ok {
			return repositories.ErrRegistrationRosterRefInvalid
		}
		if _, ok := s.st.coaches[a.CoachID]; !ok {
			return repositories.ErrRegistrationRosterRefInvalid
		}
	}
	for _, j := range judges {
		if _, ok := s.st.judges[j.JudgeID]; !ok {
			return repositories.ErrRegistrationRosterRefInvalid
		}
	}
	return nil
}

// withRefs returns a copy of reg with people attached, as the SQL joins do.
func (s *Store) withRefs(reg *models.Registration) *models.Registration {
	c := reg.Clone()
	for i := range c.Athletes {
		if a, ok := s.st.athletes[c.Athletes[i].AthleteID]; ok {
			cp := *a
			c.Athletes[i].Athlete = &cp
		}
		if co, ok := s.st.coaches[c.Athletes[i].CoachID]; ok {
			cp := *co
			c.Athletes[i].Coach = &cp
		}
	}
	for i := range c.Judges {
		if j, ok := s.st.judges[c.Judges[i].JudgeID]; ok {
			cp := *j
			c.Judges[i].Judge = &cp
		}
	}
	if c.Athletes == nil {
		c.Athletes = []models.AthleteEntry{}
	}
	if c.Judges == nil {
		c.Judges = []models.JudgeEntry{}
	}
	return c
}

func stripRefs(reg *models.Registration) *models.Registration {
	c := reg.Clone()
	c.TournamentCategory = nil
	c.Athletes = stripAthleteRefs(reg.Athletes)
	c.Judges = stripJudgeRefs(reg.Judges)
	return c
}

func stripAthleteRefs(entries []models.AthleteEntry) []models.AthleteEntry {
	out := make([]models.AthleteEntry, len(entries))
	for i, e := range entries {
		out[i] = models.AthleteEntry{AthleteID: e.AthleteID, CoachID: e.CoachID}
	}
	return out
}

func stripJudgeRefs(entries []models.JudgeEntry) []models.JudgeEntry {
	out := make([]models.JudgeEntry, len(entries))
	for i, e := range entries {
		out[i] = models.JudgeEntry{JudgeID: e.JudgeID}
	}
	return out
}
