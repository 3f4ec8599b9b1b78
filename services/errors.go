package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/federation-registry/models"
)

// Общие ошибки, используемые в сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrUnknownCategory      = errors.New("tournament category not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed         = errors.New("validation failed")
	ErrCapacityExceeded         = errors.New("roster size is outside the category capacity")
	ErrDuplicateAthlete         = errors.New("athlete is listed more than once")
	ErrDuplicatePlace           = errors.New("place is assigned more than once")
	ErrInvalidReference         = errors.New("roster references an unknown person")
	ErrInvalidAthleteReference  = errors.New("result references an unknown athlete")
	ErrRegistrationWindowClosed = errors.New("registration window is closed for this tournament")

	ErrReasonRequired   = fmt.Errorf("%w: rejection reason is required", ErrValidationFailed)
	ErrJudgeRequired    = fmt.Errorf("%w: at least one judge is required for approval", ErrValidationFailed)
	ErrInvalidPlace     = fmt.Errorf("%w: place must be a positive integer", ErrValidationFailed)
	ErrEmptyRosterEdit  = fmt.Errorf("%w: edit must supply athletes or judges", ErrValidationFailed)
	ErrCoachRequired    = fmt.Errorf("%w: every athlete needs a coach", ErrValidationFailed)
	ErrStubNameRequired = fmt.Errorf("%w: name is required for a new coach or judge", ErrValidationFailed)
	ErrInvalidStatus    = fmt.Errorf("%w: unknown registration status", ErrValidationFailed)

	// Ошибки конфликтов
	ErrDuplicateActiveRegistration = errors.New("region already has an active registration for this category")
	ErrInvalidState                = errors.New("operation not allowed in the current registration status")

	// Ошибки авторизации
	ErrUnauthorized = errors.New("operation not allowed for the current user")
)

// InvalidStateError сообщает текущий статус заявки. errors.Is(err, ErrInvalidState) == true.
type InvalidStateError struct {
	Current models.RegistrationStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: registration is %s", ErrInvalidState.Error(), e.Current)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// CapacityError carries the limit that was violated.
type CapacityError struct {
	Limit int
	Got   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: %d athletes submitted, allowed 1..%d", ErrCapacityExceeded.Error(), e.Got, e.Limit)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// transitionError converts a model-level transition failure into InvalidStateError.
func transitionError(err error) error {
	var te *models.TransitionError
	if errors.As(err, &te) {
		return &InvalidStateError{Current: te.From}
	}
	return err
}
