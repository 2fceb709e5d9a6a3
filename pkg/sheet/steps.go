package sheet

import (
	"fmt"
	"strings"
)

// Step identifies a processing step of the recognition pipeline.
// Steps are totally ordered, a later step depends on all earlier ones.
type Step int

const (
	STEP_NONE Step = iota
	STEP_LOAD
	STEP_BINARY
	STEP_SCALE
	STEP_GRID
	STEP_HEADERS
	STEP_STEM_SEEDS
	STEP_BEAMS
	STEP_LEDGERS
	STEP_HEADS
	STEP_STEMS
	STEP_REDUCTION
	STEP_CUE_BEAMS
	STEP_TEXTS
	STEP_MEASURES
	STEP_CHORDS
	STEP_CURVES
	STEP_SYMBOLS
	STEP_LINKS
	STEP_RHYTHMS
	STEP_PAGE
)

var stepNames = []string{
	"none", "load", "binary", "scale", "grid", "headers", "stem-seeds",
	"beams", "ledgers", "heads", "stems", "reduction", "cue-beams", "texts",
	"measures", "chords", "curves", "symbols", "links", "rhythms", "page",
}

// Steps returns all real steps in processing order.
func Steps() []Step {
	var list []Step
	for s := STEP_LOAD; s <= STEP_PAGE; s++ {
		list = append(list, s)
	}
	return list
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if strings.EqualFold(n, name) {
			return Step(i), nil
		}
	}
	return STEP_NONE, fmt.Errorf("unknown step %q", name)
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(data []byte) error {
	p, err := ParseStep(string(data))
	if err != nil {
		return err
	}
	*s = p
	return nil
}
