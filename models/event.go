package models

import "time"

type EventType string

const (
	EventRegistrationCreated   EventType = "REGISTRATION_CREATED"
	EventRegistrationEdited    EventType = "REGISTRATION_EDITED"
	EventRegistrationApproved  EventType = "REGISTRATION_APPROVED"
	EventRegistrationRejected  EventType = "REGISTRATION_REJECTED"
	EventRegistrationWithdrawn EventType = "REGISTRATION_WITHDRAWN"
	EventResultsReplaced       EventType = "RESULTS_REPLACED"
)

// Event is handed to the notification layer after a mutation commits.
type Event struct {
	Type                 EventType          `json:"type"`
	RegistrationID       int                `json:"registration_id,omitempty"`
	TournamentCategoryID int                `json:"tournament_category_id"`
	RegionID             int                `json:"region_id,omitempty"`
	Status               RegistrationStatus `json:"status,omitempty"`
	Payload              interface{}        `json:"payload,omitempty"`
	OccurredAt           time.Time          `json:"occurred_at"`
}
