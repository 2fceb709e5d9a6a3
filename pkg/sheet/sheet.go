package sheet

import (
	"cmp"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/interedit/pkg/sig"
)

var REALM = logging.DefineRealm("interedit/sheet", "sheet structure")

// Glyph is a piece of raw evidence interpretations may be derived from.
type Glyph struct {
	Id     sig.GlyphId     `json:"id"`
	Bounds image.Rectangle `json:"bounds"`
}

// Sheet is the document being edited. It consists of a vertical sequence
// of systems, each owning the interpretation graph for its area.
//
// All graph access has to be done under the sheet lock, mutations under
// the write lock.
type Sheet struct {
	sync.RWMutex

	name          string
	ids           *sig.IdSource
	systems       []*System
	staves        map[sig.StaffId]*Staff
	glyphs        map[sig.GlyphId]*Glyph
	slope         float64
	stemThickness int
	latest        Step
	modified      bool
	nextSystem    int
}

func New(name string) *Sheet {
	return &Sheet{
		name:          name,
		ids:           sig.NewIdSource(),
		staves:        map[sig.StaffId]*Staff{},
		glyphs:        map[sig.GlyphId]*Glyph{},
		stemThickness: 3,
	}
}

func (s *Sheet) Name() string {
	return s.name
}

func (s *Sheet) IdSource() *sig.IdSource {
	return s.ids
}

// Slope returns the global skew of the sheet.
func (s *Sheet) Slope() float64 {
	return s.slope
}

func (s *Sheet) SetSlope(slope float64) {
	s.slope = slope
}

func (s *Sheet) StemThickness() int {
	return s.stemThickness
}

func (s *Sheet) SetStemThickness(t int) {
	s.stemThickness = t
}

// LatestStep returns the latest pipeline step completed for this sheet.
func (s *Sheet) LatestStep() Step {
	return s.latest
}

func (s *Sheet) SetLatestStep(step Step) {
	s.latest = step
}

func (s *Sheet) IsModified() bool {
	return s.modified
}

func (s *Sheet) SetModified(b bool) {
	s.modified = b
}

// AddSystem appends a new system below the existing ones.
func (s *Sheet) AddSystem() *System {
	s.nextSystem++
	sys := &System{
		id:    s.nextSystem,
		sheet: s,
		graph: sig.NewGraph(fmt.Sprintf("system#%d", s.nextSystem), s.ids),
	}
	s.systems = append(s.systems, sys)
	return sys
}

// AddStaff appends a staff to a system. The staff id is the 1-based
// index of the staff in the sheet.
func (s *Sheet) AddStaff(sys *System, left, right int, top, bottom float64) *Staff {
	st := &Staff{
		id:     sig.StaffId(len(s.staves) + 1),
		system: sys,
		left:   left,
		right:  right,
		top:    top,
		bottom: bottom,
		slope:  s.slope,
	}
	s.staves[st.id] = st
	sys.staves = append(sys.staves, st)
	return st
}

func (s *Sheet) Systems() []*System {
	return slices.Clone(s.systems)
}

func (s *Sheet) System(id int) *System {
	for _, sys := range s.systems {
		if sys.id == id {
			return sys
		}
	}
	return nil
}

// SystemBelow returns the system following the given one or nil.
func (s *Sheet) SystemBelow(sys *System) *System {
	i := slices.Index(s.systems, sys)
	if i < 0 || i+1 >= len(s.systems) {
		return nil
	}
	return s.systems[i+1]
}

func (s *Sheet) Staff(id sig.StaffId) *Staff {
	return s.staves[id]
}

// Staves returns all staves from top to bottom.
func (s *Sheet) Staves() []*Staff {
	var list []*Staff
	for _, sys := range s.systems {
		list = append(list, sys.staves...)
	}
	return list
}

// SystemOf returns the system an interpretation is assigned to by its
// staff, or nil.
func (s *Sheet) SystemOf(e *sig.Entity) *System {
	if st := s.staves[e.Staff]; st != nil {
		return st.system
	}
	return nil
}

// RegisterGlyph registers raw evidence with the given bounds.
func (s *Sheet) RegisterGlyph(bounds image.Rectangle) *Glyph {
	g := &Glyph{Id: sig.GlyphId(len(s.glyphs) + 1), Bounds: bounds}
	s.glyphs[g.Id] = g
	return g
}

func (s *Sheet) Glyph(id sig.GlyphId) *Glyph {
	return s.glyphs[id]
}

// StavesOf returns the candidate staves for a point: the staff
// containing it if any, otherwise the closest staff above and below.
func (s *Sheet) StavesOf(pt image.Point) []*Staff {
	all := s.Staves()
	for _, st := range all {
		if st.Contains(pt) {
			return []*Staff{st}
		}
	}
	var above, below *Staff
	for _, st := range all {
		if float64(pt.Y) < st.FirstLineY(float64(pt.X)) {
			if below == nil || st.DistanceTo(pt) < below.DistanceTo(pt) {
				below = st
			}
		} else {
			if above == nil || st.DistanceTo(pt) < above.DistanceTo(pt) {
				above = st
			}
		}
	}
	var list []*Staff
	if above != nil {
		list = append(list, above)
	}
	if below != nil {
		list = append(list, below)
	}
	return list
}

// ClosestSystem returns the system whose area is closest to a point.
func (s *Sheet) ClosestSystem(pt image.Point) *System {
	var best *System
	bestDist := 0.0
	for _, sys := range s.systems {
		for _, st := range sys.staves {
			d := st.DistanceTo(pt)
			if best == nil || d < bestDist {
				best, bestDist = sys, d
			}
		}
	}
	return best
}

////////////////////////////////////////////////////////////////////////////////

// System is a region of the sheet, owning the graph of all
// interpretations located in its staves.
type System struct {
	id     int
	sheet  *Sheet
	staves []*Staff
	graph  *sig.Graph
}

func (s *System) Id() int {
	return s.id
}

func (s *System) String() string {
	return fmt.Sprintf("system#%d", s.id)
}

func (s *System) Sheet() *Sheet {
	return s.sheet
}

func (s *System) Graph() *sig.Graph {
	return s.graph
}

func (s *System) Staves() []*Staff {
	return slices.Clone(s.staves)
}

func (s *System) FirstStaff() *Staff {
	if len(s.staves) == 0 {
		return nil
	}
	return s.staves[0]
}

func (s *System) LastStaff() *Staff {
	if len(s.staves) == 0 {
		return nil
	}
	return s.staves[len(s.staves)-1]
}

// LeftBarline returns the leftmost barline assigned to the given staff.
func (s *System) LeftBarline(st *Staff) *sig.Entity {
	var list []*sig.Entity
	for _, e := range s.graph.Entities() {
		if e.Staff == st.id && e.Kind.IsBarline() {
			list = append(list, e)
		}
	}
	if len(list) == 0 {
		return nil
	}
	return slices.MinFunc(list, func(a, b *sig.Entity) int {
		return cmp.Compare(a.Center().X, b.Center().X)
	})
}

// EntitiesOfKind returns the interpretations of the given kinds.
func (s *System) EntitiesOfKind(kinds ...sig.Kind) []*sig.Entity {
	var list []*sig.Entity
	for _, e := range s.graph.Entities() {
		if slices.Contains(kinds, e.Kind) {
			list = append(list, e)
		}
	}
	return list
}
