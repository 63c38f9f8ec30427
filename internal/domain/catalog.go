package domain

// DefaultFallbackLevel is the stress level whose exercises are offered when no
// exercise covers the reported level.
const DefaultFallbackLevel = 3

// Catalog is a read-only snapshot of the exercise definitions.
type Catalog struct {
	exercises     []ExerciseDefinition
	fallbackLevel int
}

// NewCatalog builds a snapshot over defs. A fallbackLevel outside [1, 10]
// selects DefaultFallbackLevel.
func NewCatalog(defs []ExerciseDefinition, fallbackLevel int) Catalog {
	if ValidateStressLevel(fallbackLevel) != nil {
		fallbackLevel = DefaultFallbackLevel
	}
	cp := make([]ExerciseDefinition, len(defs))
	copy(cp, defs)
	return Catalog{exercises: cp, fallbackLevel: fallbackLevel}
}

// Len returns the number of catalogued exercises.
func (c Catalog) Len() int { return len(c.exercises) }

// All returns a copy of every definition in catalog order.
func (c Catalog) All() []ExerciseDefinition {
	out := make([]ExerciseDefinition, len(c.exercises))
	copy(out, c.exercises)
	return out
}

// Eligible returns the exercises covering level, or when there are none the
// exercises covering the fallback level. The result is empty only when both
// sets are empty.
func (c Catalog) Eligible(level int) []ExerciseDefinition {
	if out := c.covering(level); len(out) > 0 {
		return out
	}
	return c.covering(c.fallbackLevel)
}

func (c Catalog) covering(level int) []ExerciseDefinition {
	var out []ExerciseDefinition
	for _, e := range c.exercises {
		if e.Covers(level) {
			out = append(out, e)
		}
	}
	return out
}

// Lookup returns the definition stored under name.
func (c Catalog) Lookup(name string) (ExerciseDefinition, bool) {
	for _, e := range c.exercises {
		if e.Name == name {
			return e, true
		}
	}
	return ExerciseDefinition{}, false
}

// DurationOf returns the nominal duration for name in seconds. Unknown names
// yield DefaultDurationSeconds together with ErrUnknownExercise so callers can
// report the fallback without failing.
func (c Catalog) DurationOf(name string) (int, error) {
	e, ok := c.Lookup(name)
	if !ok {
		return DefaultDurationSeconds, ErrUnknownExercise
	}
	return e.NominalDuration(), nil
}
