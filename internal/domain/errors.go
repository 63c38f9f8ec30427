package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoExercisesAvailable is returned when neither the eligible set nor the
	// fallback set contains an exercise.
	ErrNoExercisesAvailable = errors.New("no exercises available")
	// ErrUnknownExercise marks a name that is absent from the live catalog.
	ErrUnknownExercise = errors.New("unknown exercise")
	// ErrInvalidStressLevel is returned for stress levels outside [1, 10].
	ErrInvalidStressLevel = errors.New("stress level must be within [1, 10]")
	// ErrInvalidExercise is returned when an exercise definition fails validation.
	ErrInvalidExercise = errors.New("invalid exercise definition")
	// ErrExerciseExists is returned when adding a name that is already in the catalog.
	ErrExerciseExists = errors.New("exercise already exists")
	// ErrNoActiveExercise is returned when finishing without a chosen exercise.
	ErrNoActiveExercise = errors.New("no exercise selected")
	// ErrEmptyPost is returned for blank community posts or comments.
	ErrEmptyPost = errors.New("content cannot be empty")
	// ErrUserExists is returned when registering a username that is taken.
	ErrUserExists = errors.New("username already exists")
	// ErrNotFound is returned by repositories when a keyed record does not exist.
	ErrNotFound = errors.New("not found")
)

// PersistenceError wraps a failure reported by the persistence port. The
// underlying error is passed through unmodified.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError for op. It returns nil for a nil
// err and leaves an existing PersistenceError untouched.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence reports whether err originated in the persistence port.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
