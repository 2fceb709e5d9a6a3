// Package pipeline describes the downstream processing steps of a sheet
// and determines which of them have to be rerun after an edit.
package pipeline

import (
	"fmt"
	"slices"
	"sync"

	"github.com/mandelsoft/logging"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/tasks"
)

var REALM = logging.DefineRealm("interedit/pipeline", "processing step impact")

// Stage is a processing step able to update its results after an edit.
type Stage interface {
	Step() sheet.Step
	// IsImpactedBy reports whether the results of the stage depend on
	// the given interpretation kind, relation kind or marker scope.
	IsImpactedBy(scope string) bool
	// Impact updates the stage results for a done or undone task list.
	Impact(list *tasks.TaskList, dir tasks.Direction) error
}

// Pipeline provides the ordered sequence of stages.
type Pipeline interface {
	Stages() []Stage
}

// Impact records a call of Stage.Impact.
type Impact struct {
	Step      sheet.Step      `json:"step"`
	List      string          `json:"list"`
	Direction tasks.Direction `json:"direction"`
	Forced    bool            `json:"forced,omitempty"`
}

func (i Impact) String() string {
	return fmt.Sprintf("%s(%s:%s)", i.Step, i.List, i.Direction)
}

// KindStage is a stage sensitive to a fixed set of scopes. It only
// records the impacts it receives.
type KindStage struct {
	lock    sync.Mutex
	log     logging.Logger
	step    sheet.Step
	scopes  sets.Set[string]
	impacts []Impact
}

var _ Stage = (*KindStage)(nil)

func NewKindStage(lctx logging.Context, step sheet.Step, scopes ...string) *KindStage {
	return &KindStage{
		log:    lctx.Logger(REALM).WithName(step.String()),
		step:   step,
		scopes: sets.New(scopes...),
	}
}

func (s *KindStage) Step() sheet.Step {
	return s.step
}

func (s *KindStage) IsImpactedBy(scope string) bool {
	return s.scopes.Has(scope)
}

func (s *KindStage) Impact(list *tasks.TaskList, dir tasks.Direction) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.log.Debug("impact of {{list}} ({{direction}})", "list", list.Name(), "direction", dir.String())
	s.impacts = append(s.impacts, Impact{
		Step:      s.step,
		List:      list.Name(),
		Direction: dir,
		Forced:    list.Has(tasks.OPT_FORCE_UPDATE),
	})
	return nil
}

// Impacts returns the impacts received so far.
func (s *KindStage) Impacts() []Impact {
	s.lock.Lock()
	defer s.lock.Unlock()
	return slices.Clone(s.impacts)
}

////////////////////////////////////////////////////////////////////////////////

// Stages is a simple pipeline given by a list of stages.
type Stages []Stage

func (s Stages) Stages() []Stage {
	return s
}

func kinds[K ~string](list ...K) []string {
	r := make([]string, len(list))
	for i, k := range list {
		r[i] = string(k)
	}
	return r
}

func rels(list ...*sig.RelationKind) []string {
	r := make([]string, len(list))
	for i, k := range list {
		r[i] = k.Name
	}
	return r
}

// Default returns the standard stage sequence for the interpretation
// and relation kinds known by package sig.
func Default(lctx logging.Context) Stages {
	return Stages{
		NewKindStage(lctx, sheet.STEP_BEAMS, kinds(sig.KIND_BEAM)...),
		NewKindStage(lctx, sheet.STEP_HEADS, kinds(sig.KIND_HEAD)...),
		NewKindStage(lctx, sheet.STEP_STEMS, append(kinds(sig.KIND_STEM), rels(sig.REL_HEAD_STEM)...)...),
		NewKindStage(lctx, sheet.STEP_TEXTS, kinds(sig.KIND_WORD, sig.KIND_SENTENCE, sig.KIND_LYRIC_LINE, sig.KIND_LYRIC_ITEM, sig.KIND_CHORD_NAME)...),
		NewKindStage(lctx, sheet.STEP_MEASURES, append(kinds(sig.KIND_BARLINE, sig.KIND_THICK_BARLINE, sig.KIND_STAFF_BARLINE, sig.KIND_CONNECTOR, sig.KIND_THICK_CONN, tasks.SCOPE_SYSTEM_MERGE), rels(sig.REL_BAR_CONNECTION)...)...),
		NewKindStage(lctx, sheet.STEP_CHORDS, append(kinds(sig.KIND_HEAD_CHORD, sig.KIND_REST_CHORD, sig.KIND_REST), rels(sig.REL_CHORD_STEM)...)...),
		NewKindStage(lctx, sheet.STEP_CURVES, append(kinds(sig.KIND_SLUR), rels(sig.REL_SLUR_HEAD)...)...),
		NewKindStage(lctx, sheet.STEP_SYMBOLS, kinds(sig.KIND_FLAG, sig.KIND_DOT)...),
		NewKindStage(lctx, sheet.STEP_LINKS, rels(sig.REL_AUGMENTATION, sig.REL_BEAM_STEM, sig.REL_FLAG_STEM, sig.REL_CHORD_SYLLABLE, sig.REL_MIRROR)...),
		NewKindStage(lctx, sheet.STEP_RHYTHMS, kinds(tasks.SCOPE_RHYTHM)...),
		NewKindStage(lctx, sheet.STEP_PAGE, kinds(tasks.SCOPE_SYSTEM_MERGE)...),
	}
}
