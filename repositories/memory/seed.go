package memory

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Dosada05/federation-registry/models"
)

// Seed is the reference data the people directory and the tournament module
// would normally own. The memory driver loads it at startup.
type Seed struct {
	Tournaments []models.Tournament         `json:"tournaments"`
	Categories  []models.TournamentCategory `json:"categories"`
	Athletes    []models.Athlete            `json:"athletes"`
	Coaches     []models.Coach              `json:"coaches"`
	Judges      []models.Judge              `json:"judges"`
}

func ReadSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	return &seed, nil
}

// Load adds the seed to the store. Categories must point at a seeded tournament.
func (s *Store) Load(seed *Seed) error {
	for _, t := range seed.Tournaments {
		s.AddTournament(t)
	}
	for _, c := range seed.Categories {
		s.mu.RLock()
		_, ok := s.st.tournaments[c.TournamentID]
		s.mu.RUnlock()
		if !ok {
			return fmt.Errorf("category %d references unknown tournament %d", c.ID, c.TournamentID)
		}
		s.AddCategory(c)
	}
	for _, a := range seed.Athletes {
		s.AddAthlete(a)
	}
	for _, c := range seed.Coaches {
		s.AddCoach(c)
	}
	for _, j := range seed.Judges {
		s.AddJudge(j)
	}
	return nil
}
