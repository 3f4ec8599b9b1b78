package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestHandleRegistrationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{
			name: "active slot taken",
			err:  &pq.Error{Code: pqUniqueViolation, Constraint: activeRegistrationConstraint},
			want: ErrActiveRegistrationExists,
		},
		{
			name: "wrapped active slot",
			err:  fmt.Errorf("insert: %w", &pq.Error{Code: pqUniqueViolation, Constraint: activeRegistrationConstraint}),
			want: ErrActiveRegistrationExists,
		},
		{
			name: "unknown category",
			err:  &pq.Error{Code: pqForeignKeyViolation, Constraint: "registrations_tournament_category_id_fkey"},
			want: ErrRegistrationCategoryInvalid,
		},
		{
			name: "unknown coach",
			err:  &pq.Error{Code: pqForeignKeyViolation, Constraint: "registration_athletes_coach_id_fkey"},
			want: ErrRegistrationRosterRefInvalid,
		},
		{
			name: "unknown judge",
			err:  &pq.Error{Code: pqForeignKeyViolation, Constraint: "registration_judges_judge_id_fkey"},
			want: ErrRegistrationRosterRefInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := handleRegistrationError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestHandleRegistrationError_PassesThroughOtherErrors(t *testing.T) {
	other := &pq.Error{Code: pqUniqueViolation, Constraint: "registrations_registration_number_key"}
	got := handleRegistrationError(other)

	assert.False(t, errors.Is(got, ErrActiveRegistrationExists))
	var pqErr *pq.Error
	assert.ErrorAs(t, got, &pqErr)
	assert.Equal(t, "registrations_registration_number_key", pqErr.Constraint)
}

func TestMapCommitError(t *testing.T) {
	assert.ErrorIs(t, mapCommitError(&pq.Error{Code: pqUniqueViolation, Constraint: activeRegistrationConstraint}), ErrActiveRegistrationExists)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapCommitError(plain))
}
