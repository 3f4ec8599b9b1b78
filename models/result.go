package models

import "time"

// PlacementPoints is the ranking points table indexed by place-1.
var PlacementPoints = [...]int{100, 90, 80, 70, 60, 50, 40, 30}

// PointsForPlace returns the ranking points for a finishing place. Places
// past the table earn nothing; ok is false for places below 1.
func PointsForPlace(place int) (points int, ok bool) {
	if place < 1 {
		return 0, false
	}
	if place > len(PlacementPoints) {
		return 0, true
	}
	return PlacementPoints[place-1], true
}

type Result struct {
	ID                   int       `json:"id" db:"id"`
	TournamentCategoryID int       `json:"tournament_category_id" db:"tournament_category_id"`
	AthleteID            int       `json:"athlete_id" db:"athlete_id"`
	Place                int       `json:"place" db:"place"`
	Points               int       `json:"points" db:"points"`
	RawScore             *float64  `json:"raw_score,omitempty" db:"raw_score"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`

	Athlete *Athlete `json:"athlete,omitempty" db:"-"`
}

// Standing is an athlete's aggregated position in a season ranking.
type Standing struct {
	Rank        int    `json:"rank"`
	AthleteID   int    `json:"athlete_id"`
	AthleteName string `json:"athlete_name"`
	Points      int    `json:"points"`
	Results     int    `json:"results"`
}
