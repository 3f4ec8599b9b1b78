package models

import (
	"fmt"
	"time"
)

// RegistrationStatus представляет статус заявки, соответствующий ENUM в БД.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "PENDING"
	RegistrationApproved  RegistrationStatus = "APPROVED"
	RegistrationRejected  RegistrationStatus = "REJECTED"
	RegistrationWithdrawn RegistrationStatus = "WITHDRAWN"
)

// Valid reports whether s is one of the known statuses.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected, RegistrationWithdrawn:
		return true
	}
	return false
}

// IsTerminal reports whether no transition is possible out of s.
func (s RegistrationStatus) IsTerminal() bool {
	return s == RegistrationApproved || s == RegistrationRejected || s == RegistrationWithdrawn
}

// HoldsSlot reports whether a registration in status s occupies the
// (region, category) slot. WITHDRAWN and REJECTED free it.
func (s RegistrationStatus) HoldsSlot() bool {
	return s == RegistrationPending || s == RegistrationApproved
}

// CanTransition reports whether the state machine allows moving from s to next.
func (s RegistrationStatus) CanTransition(next RegistrationStatus) bool {
	if s != RegistrationPending {
		return false
	}
	return next.IsTerminal()
}

// RegistrationNumberPrefix prefixes every human-readable registration number.
const RegistrationNumberPrefix = "REG-"

// FormatRegistrationNumber renders a sequence value as a registration number.
func FormatRegistrationNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", RegistrationNumberPrefix, seq)
}

// AthleteEntry is one athlete on a roster together with the coach assigned to them.
type AthleteEntry struct {
	AthleteID int `json:"athlete_id" db:"athlete_id"`
	CoachID   int `json:"coach_id" db:"coach_id"`

	Athlete *Athlete `json:"athlete,omitempty" db:"-"`
	Coach   *Coach   `json:"coach,omitempty" db:"-"`
}

// JudgeEntry is one judge attached to a roster.
type JudgeEntry struct {
	JudgeID int `json:"judge_id" db:"judge_id"`

	Judge *Judge `json:"judge,omitempty" db:"-"`
}

// Registration представляет заявку региона на категорию турнира.
type Registration struct {
	ID                   int                `json:"id" db:"id"`
	Number               string             `json:"registration_number" db:"registration_number"`
	RegionID             int                `json:"region_id" db:"region_id"`
	SubmittedBy          int                `json:"submitted_by" db:"submitted_by"`
	TournamentCategoryID int                `json:"tournament_category_id" db:"tournament_category_id"`
	Status               RegistrationStatus `json:"status" db:"status"`
	RejectionReason      *string            `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ApprovedBy           *int               `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt           *time.Time         `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" db:"updated_at"`

	Athletes []AthleteEntry `json:"athletes" db:"-"`
	Judges   []JudgeEntry   `json:"judges" db:"-"`

	TournamentCategory *TournamentCategory `json:"tournament_category,omitempty" db:"-"`
}

// AthleteIDs returns the athlete ids on the roster in entry order.
func (r *Registration) AthleteIDs() []int {
	ids := make([]int, 0, len(r.Athletes))
	for _, a := range r.Athletes {
		ids = append(ids, a.AthleteID)
	}
	return ids
}

// Clone returns a deep copy so callers can snapshot the aggregate before mutating it.
func (r *Registration) Clone() *Registration {
	if r == nil {
		return nil
	}
	c := *r
	c.Athletes = append([]AthleteEntry(nil), r.Athletes...)
	c.Judges = append([]JudgeEntry(nil), r.Judges...)
	if r.RejectionReason != nil {
		reason := *r.RejectionReason
		c.RejectionReason = &reason
	}
	if r.ApprovedBy != nil {
		by := *r.ApprovedBy
		c.ApprovedBy = &by
	}
	if r.ApprovedAt != nil {
		at := *r.ApprovedAt
		c.ApprovedAt = &at
	}
	return &c
}

// Approve moves a PENDING registration to APPROVED.
func (r *Registration) Approve(approverID int, at time.Time) error {
	if !r.Status.CanTransition(RegistrationApproved) {
		return &TransitionError{From: r.Status, To: RegistrationApproved}
	}
	r.Status = RegistrationApproved
	r.ApprovedBy = &approverID
	r.ApprovedAt = &at
	r.RejectionReason = nil
	r.UpdatedAt = at
	return nil
}

// Reject moves a PENDING registration to REJECTED and stores the reason.
func (r *Registration) Reject(reason string, at time.Time) error {
	if !r.Status.CanTransition(RegistrationRejected) {
		return &TransitionError{From: r.Status, To: RegistrationRejected}
	}
	r.Status = RegistrationRejected
	r.RejectionReason = &reason
	r.ApprovedBy = nil
	r.ApprovedAt = nil
	r.UpdatedAt = at
	return nil
}

// Withdraw moves a PENDING registration to WITHDRAWN.
func (r *Registration) Withdraw(at time.Time) error {
	if !r.Status.CanTransition(RegistrationWithdrawn) {
		return &TransitionError{From: r.Status, To: RegistrationWithdrawn}
	}
	r.Status = RegistrationWithdrawn
	r.UpdatedAt = at
	return nil
}

// TransitionError is returned when the state machine refuses a transition.
type TransitionError struct {
	From RegistrationStatus
	To   RegistrationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("registration status %s does not allow transition to %s", e.From, e.To)
}
