package memory

import (
	"context"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/repositories"
)

func (s *Store) GetCategory(ctx context.Context, exec repositories.SQLExecutor, categoryID int) (*models.TournamentCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.st.categories[categoryID]
	if !ok {
		return nil, repositories.ErrTournamentCategoryNotFound
	}
	cp := *c
	if t, ok := s.st.tournaments[c.TournamentID]; ok {
		tc := *t
		cp.Tournament = &tc
	}
	return &cp, nil
}

func (s *Store) LockCategory(ctx context.Context, exec repositories.SQLExecutor, categoryID int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.st.categories[categoryID]; !ok {
		return repositories.ErrTournamentCategoryNotFound
	}
	return nil
}

func (s *Store) Athletes(ctx context.Context, exec repositories.SQLExecutor, ids []int) (map[int]*models.Athlete, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.st.athletes, ids), nil
}

func (s *Store) Coaches(ctx context.Context, exec repositories.SQLExecutor, ids []int) (map[int]*models.Coach, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.st.coaches, ids), nil
}

func (s *Store) Judges(ctx context.Context, exec repositories.SQLExecutor, ids []int) (map[int]*models.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.st.judges, ids), nil
}

func (s *Store) CreateCoachStub(ctx context.Context, exec repositories.SQLExecutor, coach *models.Coach) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextCoachID++
	coach.ID = s.st.nextCoachID
	cp := *coach
	s.st.coaches[coach.ID] = &cp
	return nil
}

func (s *Store) CreateJudgeStub(ctx context.Context, exec repositories.SQLExecutor, judge *models.Judge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextJudgeID++
	judge.ID = s.st.nextJudgeID
	cp := *judge
	s.st.judges[judge.ID] = &cp
	return nil
}

func lookup[V any](m map[int]*V, ids []int) map[int]*V {
	found := make(map[int]*V, len(ids))
	for _, id := range ids {
		if v, ok := m[id]; ok {
			cp := *v
			found[id] = &cp
		}
	}
	return found
}
