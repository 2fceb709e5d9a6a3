// Package scenario describes a sheet together with a sequence of edit
// operations in a YAML document. Scenarios are used to replay edits
// headless, for example by the interedit command.
package scenario

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/drone/envsubst"
	"github.com/goombaio/namegenerator"
	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
)

var REALM = logging.DefineRealm("interedit/scenario", "edit scenarios")

// Box is a rectangle given by its corners [x0, y0, x1, y1].
type Box [4]int

func (b Box) Rectangle() image.Rectangle {
	return image.Rect(b[0], b[1], b[2], b[3])
}

func BoxOf(r image.Rectangle) Box {
	return Box{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y}
}

type Staff struct {
	Left   int     `json:"left"`
	Right  int     `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

type System struct {
	Staves []Staff `json:"staves"`
}

type Glyph struct {
	Name   string `json:"name"`
	Bounds Box    `json:"bounds"`
}

// Entity describes an interpretation. Names are used to refer to it
// in relations and operations.
type Entity struct {
	Name       string            `json:"name,omitempty"`
	Kind       sig.Kind          `json:"kind"`
	Staff      sig.StaffId       `json:"staff"`
	Bounds     Box               `json:"bounds"`
	Glyph      string            `json:"glyph,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type Relation struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// Prompts are the scripted answers of the user, consumed in order.
// Missing answers decline.
type Prompts struct {
	Confirm []bool `json:"confirm,omitempty"`
	Staff   []int  `json:"staff,omitempty"`
}

type Word struct {
	Bounds Box    `json:"bounds"`
	Value  string `json:"value"`
}

type Line struct {
	Bounds Box    `json:"bounds"`
	Role   string `json:"role,omitempty"`
	Words  []Word `json:"words"`
}

// TextLine converts the line to the recognizer result.
func (l Line) TextLine() edit.TextLine {
	r := edit.TextLine{Bounds: l.Bounds.Rectangle(), Role: l.Role}
	for _, w := range l.Words {
		r.Words = append(r.Words, edit.TextWord{Bounds: w.Bounds.Rectangle(), Value: w.Value})
	}
	return r
}

// Text is the scripted text recognition result for a glyph.
type Text struct {
	Glyph string `json:"glyph"`
	Lines []Line `json:"lines"`
}

// Settings overwrite the default controller configuration.
type Settings struct {
	UseStaffLink      *bool    `json:"useStaffLink,omitempty"`
	UseStaffProximity *bool    `json:"useStaffProximity,omitempty"`
	GutterRatio       *float64 `json:"gutterRatio,omitempty"`
}

// Apply returns the configuration with the given settings applied.
func (s *Settings) Apply(cfg edit.Config) edit.Config {
	if s == nil {
		return cfg
	}
	if s.UseStaffLink != nil {
		cfg.UseStaffLink = *s.UseStaffLink
	}
	if s.UseStaffProximity != nil {
		cfg.UseStaffProximity = *s.UseStaffProximity
	}
	if s.GutterRatio != nil {
		cfg.GutterRatio = *s.GutterRatio
	}
	return cfg
}

const (
	OP_ADD              = "add"
	OP_REMOVE           = "remove"
	OP_REMOVE_SELECTION = "remove-selection"
	OP_LINK             = "link"
	OP_UNLINK           = "unlink"
	OP_MERGE_CHORDS     = "merge-chords"
	OP_SPLIT_CHORD      = "split-chord"
	OP_MERGE_SYSTEMS    = "merge-systems"
	OP_REPROCESS_RHYTHM = "reprocess-rhythm"
	OP_ASSIGN           = "assign"
	OP_ADD_TEXT         = "add-text"
	OP_CHANGE_WORD      = "change-word"
	OP_CHANGE_ROLE      = "change-role"
	OP_UNDO             = "undo"
	OP_REDO             = "redo"
	OP_CLEAR_HISTORY    = "clear-history"
)

// Operation is a single edit of a scenario. Only the fields required
// by the operation type are evaluated.
type Operation struct {
	Op string `json:"op"`

	Entities []Entity `json:"entities,omitempty"`
	Targets  []string `json:"targets,omitempty"`
	Source   string   `json:"source,omitempty"`
	Target   string   `json:"target,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	WithStem bool     `json:"withStem,omitempty"`
	System   int      `json:"system,omitempty"`
	Glyph    string   `json:"glyph,omitempty"`
	Lyrics   bool     `json:"lyrics,omitempty"`
	Value    string   `json:"value,omitempty"`

	// Error is a substring of the expected error message. An operation
	// failing without expectation stops the scenario.
	Error string `json:"error,omitempty"`
}

func (o Operation) String() string {
	switch {
	case o.Target != "":
		return fmt.Sprintf("%s %s", o.Op, o.Target)
	case len(o.Targets) > 0:
		return fmt.Sprintf("%s %v", o.Op, o.Targets)
	case o.Glyph != "":
		return fmt.Sprintf("%s %s", o.Op, o.Glyph)
	}
	return o.Op
}

type Scenario struct {
	Name          string     `json:"name,omitempty"`
	Latest        sheet.Step `json:"latest,omitempty"`
	Slope         float64    `json:"slope,omitempty"`
	StemThickness int        `json:"stemThickness,omitempty"`
	Settings      *Settings  `json:"settings,omitempty"`

	Systems    []System    `json:"systems"`
	Glyphs     []Glyph     `json:"glyphs,omitempty"`
	Entities   []Entity    `json:"entities,omitempty"`
	Relations  []Relation  `json:"relations,omitempty"`
	Prompts    Prompts     `json:"prompts,omitempty"`
	Texts      []Text      `json:"texts,omitempty"`
	Operations []Operation `json:"operations,omitempty"`
}

// Parse reads a scenario document. ${VAR} references are substituted
// from vars and the environment, in that order.
func Parse(data []byte, vars map[string]string) (*Scenario, error) {
	src, err := envsubst.Eval(string(data), func(name string) string {
		if v, ok := vars[name]; ok {
			return v
		}
		return os.Getenv(name)
	})
	if err != nil {
		return nil, fmt.Errorf("variable substitution: %w", err)
	}

	var s Scenario
	if err := yaml.UnmarshalStrict([]byte(src), &s); err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = namegenerator.NewNameGenerator(time.Now().UnixNano()).Generate()
	}
	if s.Latest == sheet.STEP_NONE {
		s.Latest = sheet.STEP_PAGE
	}
	return &s, s.Validate()
}

func Load(fs vfs.FileSystem, path string, vars map[string]string) (*Scenario, error) {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data, vars)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", path, err)
	}
	return s, nil
}

// Validate checks the references among the declared elements.
func (s *Scenario) Validate() error {
	if len(s.Systems) == 0 {
		return fmt.Errorf("no systems defined")
	}
	staves := 0
	for _, sys := range s.Systems {
		staves += len(sys.Staves)
	}
	glyphs := map[string]bool{}
	for _, g := range s.Glyphs {
		if g.Name == "" || glyphs[g.Name] {
			return fmt.Errorf("invalid or duplicate glyph name %q", g.Name)
		}
		glyphs[g.Name] = true
	}
	names := map[string]bool{}
	for i, e := range s.Entities {
		if e.Staff < 1 || int(e.Staff) > staves {
			return fmt.Errorf("entity %d: unknown staff %d", i+1, e.Staff)
		}
		if e.Glyph != "" && !glyphs[e.Glyph] {
			return fmt.Errorf("entity %d: unknown glyph %q", i+1, e.Glyph)
		}
		if e.Name != "" {
			if names[e.Name] {
				return fmt.Errorf("duplicate entity name %q", e.Name)
			}
			names[e.Name] = true
		}
	}
	for i, r := range s.Relations {
		if sig.GetRelationKind(r.Kind) == nil {
			return fmt.Errorf("relation %d: unknown kind %q", i+1, r.Kind)
		}
		if !names[r.Source] || !names[r.Target] {
			return fmt.Errorf("relation %d: unknown endpoint", i+1)
		}
	}
	for i, t := range s.Texts {
		if !glyphs[t.Glyph] {
			return fmt.Errorf("text %d: unknown glyph %q", i+1, t.Glyph)
		}
	}
	for i, o := range s.Operations {
		if o.Op == "" {
			return fmt.Errorf("operation %d: missing op", i+1)
		}
		if o.Kind != "" && (o.Op == OP_LINK || o.Op == OP_UNLINK) && sig.GetRelationKind(o.Kind) == nil {
			return fmt.Errorf("operation %d: unknown relation kind %q", i+1, o.Kind)
		}
	}
	return nil
}
