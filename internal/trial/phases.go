package trial

// Phase is one named stage of the session. DurationSec of 0 means the phase is
// not time-boxed.
type Phase struct {
	Name        string
	DurationSec int
}

// Sequence tracks position in the fixed, ordered phase list. Index -1 means
// the session has not started. The index only moves forward and clamps at the
// last phase; there is no rollback and no random access.
type Sequence struct {
	Phases []Phase
	Index  int
}

func NewSequence(phases []Phase) Sequence {
	return Sequence{Phases: phases, Index: -1}
}

// Advance moves to the next phase and returns it. Once the last phase is
// reached, further calls leave the index alone and report ok=false ("no more
// phases") rather than erroring.
func (s *Sequence) Advance() (Phase, bool) {
	if s.Index >= len(s.Phases)-1 {
		s.Index = len(s.Phases) - 1
		return Phase{}, false
	}
	s.Index++
	return s.Phases[s.Index], true
}

// Current returns the phase at the current index, or ok=false if the sequence
// has not started.
func (s *Sequence) Current() (Phase, bool) {
	if s.Index < 0 || len(s.Phases) == 0 {
		return Phase{}, false
	}
	return s.Phases[s.Index], true
}

func (s *Sequence) AtEnd() bool {
	return len(s.Phases) > 0 && s.Index >= len(s.Phases)-1
}
