package domain

// SessionContext is the state of one practice attempt. It is a value: every
// transition returns an updated copy and leaves the receiver untouched.
type SessionContext struct {
	UserID           string             `json:"-"`
	StressBefore     int                `json:"stressBefore"`
	Exercise         ExerciseDefinition `json:"exercise"`
	NominalSeconds   int                `json:"nominalSeconds"`
	RemainingSeconds int                `json:"remainingSeconds"`
	Ticked           bool               `json:"ticked"`
	Running          bool               `json:"running"`
}

// NewSessionContext prepares an attempt of ex for a user who reported stressBefore.
// The countdown is not yet running.
func NewSessionContext(userID string, stressBefore int, ex ExerciseDefinition) SessionContext {
	nominal := ex.NominalDuration()
	return SessionContext{
		UserID:           userID,
		StressBefore:     stressBefore,
		Exercise:         ex,
		NominalSeconds:   nominal,
		RemainingSeconds: nominal,
	}
}

// HasExercise reports whether an exercise has been chosen.
func (s SessionContext) HasExercise() bool {
	return s.Exercise.Name != ""
}

// Started returns the context with the countdown running from the full duration.
func (s SessionContext) Started() SessionContext {
	s.RemainingSeconds = s.NominalSeconds
	s.Ticked = false
	s.Running = true
	return s
}

// Tick returns the context after one elapsed second left remaining seconds.
func (s SessionContext) Tick(remaining int) SessionContext {
	if remaining < 0 {
		remaining = 0
	}
	s.RemainingSeconds = remaining
	s.Ticked = true
	if remaining == 0 {
		s.Running = false
	}
	return s
}

// Stopped returns the context with the countdown halted at its current position.
func (s SessionContext) Stopped() SessionContext {
	s.Running = false
	return s
}

// PercentElapsed is the share of the nominal duration already spent.
func (s SessionContext) PercentElapsed() float64 {
	return CompletionPercentage(s.NominalSeconds, s.RemainingSeconds, s.Ticked)
}

