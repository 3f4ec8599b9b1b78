package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/repositories/memory"
)

const (
	hostRegion  = 1
	guestRegion = 2

	openCategory     = 10
	openCategoryF    = 11
	closedCategory   = 20
	unknownCategory  = 999
	openTournament   = 1
	closedTournament = 2
)

var fixedNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

var (
	admin  = models.Actor{UserID: 100, Role: models.RoleAdmin}
	editor = models.Actor{UserID: 101, Role: models.RoleEditor}
	// rep1 представляет регион-организатор.
	rep1  = models.Actor{UserID: 1, Role: models.RoleRegionalRepresentative, RegionID: intPtr(hostRegion)}
	rep2  = models.Actor{UserID: 2, Role: models.RoleRegionalRepresentative, RegionID: intPtr(guestRegion)}
	rep2b = models.Actor{UserID: 3, Role: models.RoleRegionalRepresentative, RegionID: intPtr(guestRegion)}
)

// newSeededStore builds the reference data shared by the service tests.
func newSeededStore() *memory.Store {
	store := memory.New()
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store.AddTournament(models.Tournament{
		ID:                 openTournament,
		Title:              "Spring Cup",
		OrganizingRegionID: intPtr(hostRegion),
		StartDate:          start,
		EndDate:            start.Add(48 * time.Hour),
		IsRegistrationOpen: true,
	})
	store.AddTournament(models.Tournament{
		ID:                 closedTournament,
		Title:              "Closed Cup",
		OrganizingRegionID: intPtr(guestRegion),
		StartDate:          start,
		EndDate:            start.Add(48 * time.Hour),
		IsRegistrationOpen: false,
	})
	store.AddCategory(models.TournamentCategory{ID: openCategory, TournamentID: openTournament, AgeCategory: "adult", Gender: "M", BowType: "recurve"})
	store.AddCategory(models.TournamentCategory{ID: openCategoryF, TournamentID: openTournament, AgeCategory: "adult", Gender: "F", BowType: "compound"})
	store.AddCategory(models.TournamentCategory{ID: closedCategory, TournamentID: closedTournament, AgeCategory: "junior", Gender: "M", BowType: "recurve"})

	for id := 1; id <= 10; id++ {
		store.AddAthlete(models.Athlete{ID: id, Name: "Athlete " + string(rune('A'+id-1))})
	}
	for id := 1; id <= 3; id++ {
		store.AddCoach(models.Coach{ID: id, Name: "Coach " + string(rune('A'+id-1))})
		store.AddJudge(models.Judge{ID: id, Name: "Judge " + string(rune('A'+id-1))})
	}
	return store
}

// recordingNotifier collects published events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, event models.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) types() []models.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.EventType, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	store    *memory.Store
	notifier *recordingNotifier
	regs     *RegistrationService
	results  *ResultsService
}

func newTestEnv() *testEnv {
	store := newSeededStore()
	notifier := &recordingNotifier{}
	logger := discardLogger()
	provider := NewCachedTournamentProvider(NewTournamentProvider(store), time.Minute, logger)

	regs := NewRegistrationService(store, store, store, store, store, provider, notifier, logger)
	regs.SetClock(func() time.Time { return fixedNow })
	results := NewResultsService(store, store, store, store, provider, notifier, logger)
	results.SetClock(func() time.Time { return fixedNow })
	return &testEnv{store: store, notifier: notifier, regs: regs, results: results}
}

// roster returns n athletes starting at firstAthlete, all coached by coach 1.
func roster(firstAthlete, n int) []AthleteInput {
	out := make([]AthleteInput, n)
	for i := range out {
		out[i] = AthleteInput{AthleteID: firstAthlete + i, CoachID: intPtr(1)}
	}
	return out
}

func judges(ids ...int) []JudgeInput {
	out := make([]JudgeInput, len(ids))
	for i, id := range ids {
		out[i] = JudgeInput{JudgeID: intPtr(id)}
	}
	return out
}

func createInput(region, category, athletes int, judgeIDs ...int) CreateRegistrationInput {
	return CreateRegistrationInput{
		RegionID:             region,
		TournamentCategoryID: category,
		Athletes:             roster(1, athletes),
		Judges:               judges(judgeIDs...),
	}
}
