package memory

import (
	"context"
	"sort"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/repositories"
)

func (s *Store) ReplaceForCategory(ctx context.Context, exec repositories.SQLExecutor, categoryID int, results []*models.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	places := make(map[int]bool, len(results))
	athletes := make(map[int]bool, len(results))
	stored := make([]*models.Result, 0, len(results))
	for _, res := range results {
		if places[res.Place] || athletes[res.AthleteID] {
			return repositories.ErrResultConflict
		}
		if _, ok := s.st.athletes[res.AthleteID]; !ok {
			return repositories.ErrResultAthleteInvalid
		}
		places[res.Place] = true
		athletes[res.AthleteID] = true

		s.st.nextResultID++
		res.ID = s.st.nextResultID
		cp := *res
		cp.TournamentCategoryID = categoryID
		cp.Athlete = nil
		stored = append(stored, &cp)
	}
	s.st.results[categoryID] = stored
	return nil
}

func (s *Store) ListByCategory(ctx context.Context, exec repositories.SQLExecutor, categoryID int) ([]*models.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Result, 0, len(s.st.results[categoryID]))
	for _, res := range s.st.results[categoryID] {
		cp := *res
		if a, ok := s.st.athletes[res.AthleteID]; ok {
			ac := *a
			cp.Athlete = &ac
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Place < out[j].Place })
	return out, nil
}

func (s *Store) SumPointsByAthlete(ctx context.Context, exec repositories.SQLExecutor, filter repositories.StandingsFilter) ([]*models.Standing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[int]*models.Standing)
	for categoryID, results := range s.st.results {
		c, ok := s.st.categories[categoryID]
		if !ok || !matchesStandingsFilter(c, filter) {
			continue
		}
		t, ok := s.st.tournaments[c.TournamentID]
		if !ok || t.StartDate.Year() != filter.Season {
			continue
		}
		for _, res := range results {
			st, ok := totals[res.AthleteID]
			if !ok {
				st = &models.Standing{AthleteID: res.AthleteID}
				if a, ok := s.st.athletes[res.AthleteID]; ok {
					st.AthleteName = a.Name
				}
				totals[res.AthleteID] = st
			}
			st.Points += res.Points
			st.Results++
		}
	}

	out := make([]*models.Standing, 0, len(totals))
	for _, st := range totals {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].AthleteID < out[j].AthleteID
	})
	return out, nil
}

func matchesStandingsFilter(c *models.TournamentCategory, filter repositories.StandingsFilter) bool {
	if filter.AgeCategory != nil && c.AgeCategory != *filter.AgeCategory {
		return false
	}
	if filter.Gender != nil && c.Gender != *filter.Gender {
		return false
	}
	if filter.BowType != nil && c.BowType != *filter.BowType {
		return false
	}
	return true
}
