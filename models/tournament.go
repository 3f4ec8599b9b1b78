package models

import "time"

// Tournament представляет турнир федерации. Жизненным циклом турнира
// управляет внешний модуль; здесь только поля, нужные для регистрации.
type Tournament struct {
	ID                   int        `json:"id" db:"id"`
	Title                string     `json:"title" db:"title"`
	OrganizingRegionID   *int       `json:"organizing_region_id,omitempty" db:"organizing_region_id"`
	StartDate            time.Time  `json:"start_date" db:"start_date"`
	EndDate              time.Time  `json:"end_date" db:"end_date"`
	IsRegistrationOpen   bool       `json:"is_registration_open" db:"is_registration_open"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty" db:"registration_deadline"`
}

// RegistrationOpenAt reports whether submissions are accepted at now: the
// registration flag is set, the deadline (if any) has not passed and the
// tournament has not started yet.
func (t *Tournament) RegistrationOpenAt(now time.Time) bool {
	if t == nil || !t.IsRegistrationOpen {
		return false
	}
	if t.RegistrationDeadline != nil && now.After(*t.RegistrationDeadline) {
		return false
	}
	return now.Before(t.StartDate)
}

// IsHostRegion reports whether regionID organizes the tournament.
func (t *Tournament) IsHostRegion(regionID int) bool {
	return t != nil && t.OrganizingRegionID != nil && *t.OrganizingRegionID == regionID
}

// TournamentCategory is an (age category, gender, bow type) partition of a tournament.
type TournamentCategory struct {
	ID           int    `json:"id" db:"id"`
	TournamentID int    `json:"tournament_id" db:"tournament_id"`
	AgeCategory  string `json:"age_category" db:"age_category"`
	Gender       string `json:"gender" db:"gender"`
	BowType      string `json:"bow_type" db:"bow_type"`

	Tournament *Tournament `json:"tournament,omitempty" db:"-"`
}
