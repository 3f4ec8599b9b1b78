package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Dosada05/federation-registry/models"
)

type ResultsServiceSuite struct {
	suite.Suite
	ctx context.Context
	env *testEnv
}

func TestResultsService(t *testing.T) {
	suite.Run(t, new(ResultsServiceSuite))
}

func (s *ResultsServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.env = newTestEnv()
}

func placings(pairs ...int) []ResultInput {
	out := make([]ResultInput, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, ResultInput{AthleteID: pairs[i], Place: pairs[i+1]})
	}
	return out
}

func (s *ResultsServiceSuite) TestSubmitResults_PointsFromPlace() {
	score := 287.5
	entries := placings(3, 2, 1, 1, 2, 3, 4, 9)
	entries[0].RawScore = &score

	stored, err := s.env.results.SubmitResults(s.ctx, admin, openCategory, entries)
	s.Require().NoError(err)
	s.Require().Len(stored, 4)

	wantPlaces := []int{1, 2, 3, 9}
	wantPoints := []int{100, 90, 80, 0}
	wantAthletes := []int{1, 3, 2, 4}
	for i, r := range stored {
		s.Equal(wantPlaces[i], r.Place)
		s.Equal(wantPoints[i], r.Points)
		s.Equal(wantAthletes[i], r.AthleteID)
		s.Equal(openCategory, r.TournamentCategoryID)
	}
	s.Require().NotNil(stored[1].RawScore)
	s.Equal(287.5, *stored[1].RawScore)
	s.Require().NotNil(stored[0].Athlete)
	s.Equal("Athlete A", stored[0].Athlete.Name)

	s.Equal([]models.EventType{models.EventResultsReplaced}, s.env.notifier.types())
}

func (s *ResultsServiceSuite) TestSubmitResults_Idempotent() {
	entries := placings(1, 1, 2, 2, 3, 3)
	first, err := s.env.results.SubmitResults(s.ctx, editor, openCategory, entries)
	s.Require().NoError(err)
	second, err := s.env.results.SubmitResults(s.ctx, editor, openCategory, entries)
	s.Require().NoError(err)

	s.Require().Len(second, len(first))
	for i := range first {
		s.Equal(first[i].AthleteID, second[i].AthleteID)
		s.Equal(first[i].Place, second[i].Place)
		s.Equal(first[i].Points, second[i].Points)
	}

	listed, err := s.env.results.Results(s.ctx, openCategory)
	s.Require().NoError(err)
	s.Len(listed, 3)
}

func (s *ResultsServiceSuite) TestSubmitResults_ReplacesPreviousSet() {
	_, err := s.env.results.SubmitResults(s.ctx, admin, openCategory, placings(1, 1, 2, 2, 3, 3))
	s.Require().NoError(err)

	stored, err := s.env.results.SubmitResults(s.ctx, admin, openCategory, placings(4, 1))
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal(4, stored[0].AthleteID)

	cleared, err := s.env.results.SubmitResults(s.ctx, admin, openCategory, nil)
	s.Require().NoError(err)
	s.Empty(cleared)
}

func (s *ResultsServiceSuite) TestSubmitResults_Rejections() {
	_, err := s.env.results.SubmitResults(s.ctx, admin, openCategory, placings(1, 1, 2, 2))
	s.Require().NoError(err)

	tests := []struct {
		name     string
		actor    models.Actor
		category int
		entries  []ResultInput
		want     error
	}{
		{name: "representative", actor: rep1, category: openCategory, entries: placings(1, 1), want: ErrUnauthorized},
		{name: "duplicate place", actor: admin, category: openCategory, entries: placings(1, 1, 2, 1), want: ErrDuplicatePlace},
		{name: "duplicate athlete", actor: admin, category: openCategory, entries: placings(1, 1, 1, 2), want: ErrDuplicateAthlete},
		{name: "zero place", actor: admin, category: openCategory, entries: placings(1, 0), want: ErrInvalidPlace},
		{name: "negative place", actor: admin, category: openCategory, entries: placings(1, -2), want: ErrValidationFailed},
		{name: "unknown athlete", actor: admin, category: openCategory, entries: placings(1, 1, 404, 2), want: ErrInvalidAthleteReference},
		{name: "unknown category", actor: admin, category: unknownCategory, entries: placings(1, 1), want: ErrUnknownCategory},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.env.results.SubmitResults(s.ctx, tt.actor, tt.category, tt.entries)
			s.ErrorIs(err, tt.want)
		})
	}

	// Неудачные попытки не трогают сохранённые результаты.
	stored, err := s.env.results.Results(s.ctx, openCategory)
	s.Require().NoError(err)
	s.Require().Len(stored, 2)
	s.Equal(1, stored[0].AthleteID)
	s.Equal(2, stored[1].AthleteID)
}

func (s *ResultsServiceSuite) TestResults_UnknownCategory() {
	_, err := s.env.results.Results(s.ctx, unknownCategory)
	s.ErrorIs(err, ErrUnknownCategory)

	empty, err := s.env.results.Results(s.ctx, openCategoryF)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *ResultsServiceSuite) TestStandings() {
	_, err := s.env.results.SubmitResults(s.ctx, admin, openCategory, placings(1, 1, 2, 2, 3, 3))
	s.Require().NoError(err)
	_, err = s.env.results.SubmitResults(s.ctx, admin, openCategoryF, placings(2, 1, 3, 2, 4, 12))
	s.Require().NoError(err)

	standings, err := s.env.results.Standings(s.ctx, StandingsFilter{})
	s.Require().NoError(err)
	s.Require().Len(standings, 4)

	// athlete 2: 90 + 100, athlete 3: 80 + 90, athlete 1: 100, athlete 4: 0
	want := []struct{ athlete, points, results int }{{2, 190, 2}, {3, 170, 2}, {1, 100, 1}, {4, 0, 1}}
	for i, w := range want {
		s.Equal(i+1, standings[i].Rank)
		s.Equal(w.athlete, standings[i].AthleteID)
		s.Equal(w.points, standings[i].Points)
		s.Equal(w.results, standings[i].Results)
	}
	s.Equal("Athlete B", standings[0].AthleteName)

	recurve, err := s.env.results.Standings(s.ctx, StandingsFilter{BowType: strPtr("recurve")})
	s.Require().NoError(err)
	s.Require().Len(recurve, 3)
	s.Equal(1, recurve[0].AthleteID)
	s.Equal(100, recurve[0].Points)

	female, err := s.env.results.Standings(s.ctx, StandingsFilter{Gender: strPtr("F"), AgeCategory: strPtr("adult")})
	s.Require().NoError(err)
	s.Len(female, 3)

	lastSeason, err := s.env.results.Standings(s.ctx, StandingsFilter{Season: 2024})
	s.Require().NoError(err)
	s.Empty(lastSeason)
}

func (s *ResultsServiceSuite) TestStandings_TiesOrderedByAthlete() {
	_, err := s.env.results.SubmitResults(s.ctx, admin, openCategory, placings(5, 1))
	s.Require().NoError(err)
	_, err = s.env.results.SubmitResults(s.ctx, admin, openCategoryF, placings(3, 1))
	s.Require().NoError(err)

	standings, err := s.env.results.Standings(s.ctx, StandingsFilter{Season: 2025})
	s.Require().NoError(err)
	s.Require().Len(standings, 2)
	s.Equal(3, standings[0].AthleteID)
	s.Equal(5, standings[1].AthleteID)
	s.Equal(2, standings[1].Rank)
}
