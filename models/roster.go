// File: models/roster.go
package models

// Athlete, Coach and Judge are owned by the federation's people directory;
// registrations only reference them and carry the fields used for validation.

type Athlete struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Gender      string `json:"gender,omitempty" db:"gender"`
	AgeCategory string `json:"age_category,omitempty" db:"age_category"`
	RegionID    *int   `json:"region_id,omitempty" db:"region_id"`
}

type Coach struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	RegionID *int   `json:"region_id,omitempty" db:"region_id"`
}

type Judge struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Category string `json:"category,omitempty" db:"category"`
	RegionID *int   `json:"region_id,omitempty" db:"region_id"`
}
