// Package links implements a proximity based search for candidate
// relations between a (new) interpretation and the interpretations
// already present in a system.
package links

import (
	"cmp"
	"image"
	"math"
	"slices"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/interedit/pkg/geom"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/utils"
)

var REALM = logging.DefineRealm("interedit/links", "link search")

const (
	DEFAULT_MARGIN  = 4
	DEFAULT_DOT_GAP = 30
)

// Searcher finds the relations an interpretation would have with its
// neighbors. It only reads the graph.
type Searcher struct {
	log    logging.Logger
	margin int
	dotGap int
}

func New(lctx logging.Context) *Searcher {
	return &Searcher{
		log:    lctx.Logger(REALM),
		margin: DEFAULT_MARGIN,
		dotGap: DEFAULT_DOT_GAP,
	}
}

// WithMargin sets the tolerance used for adjacency checks.
func (s *Searcher) WithMargin(m int) *Searcher {
	s.margin = m
	return s
}

// SearchLinks returns the candidate links of e with interpretations of
// the system. For additions only partners not yet saturated for the
// relation kind are considered.
func (s *Searcher) SearchLinks(e *sig.Entity, system *sheet.System, isAddition bool) []sig.Link {
	g := system.Graph()
	var result []sig.Link

	switch e.Kind {
	case sig.KIND_HEAD:
		if stem := s.nearest(e, s.adjacentStems(g, e)); stem != nil {
			result = append(result, outgoing(stem, sig.REL_HEAD_STEM))
		}
	case sig.KIND_STEM:
		for _, h := range s.adjacentHeads(g, e) {
			result = append(result, incoming(h, sig.REL_HEAD_STEM))
		}
		for _, b := range s.overlapping(g, e, sig.KIND_BEAM, sig.KIND_FLAG) {
			if b.Kind == sig.KIND_FLAG {
				if isAddition && len(g.Outgoing(b.Id, sig.REL_FLAG_STEM)) > 0 {
					continue
				}
				result = append(result, incoming(b, sig.REL_FLAG_STEM))
			} else {
				result = append(result, incoming(b, sig.REL_BEAM_STEM))
			}
		}
	case sig.KIND_FLAG:
		if stem := s.nearest(e, s.overlapping(g, e, sig.KIND_STEM)); stem != nil {
			result = append(result, outgoing(stem, sig.REL_FLAG_STEM))
		}
	case sig.KIND_BEAM:
		for _, stem := range s.overlapping(g, e, sig.KIND_STEM) {
			result = append(result, outgoing(stem, sig.REL_BEAM_STEM))
		}
	case sig.KIND_DOT:
		if h := s.dotTarget(g, e, isAddition); h != nil {
			result = append(result, outgoing(h, sig.REL_AUGMENTATION))
		}
	case sig.KIND_SLUR:
		result = append(result, s.slurLinks(g, e)...)
	case sig.KIND_LYRIC_ITEM:
		if c := s.syllableChord(g, e); c != nil {
			result = append(result, outgoing(c, sig.REL_CHORD_SYLLABLE))
		}
	}
	if len(result) > 0 {
		s.log.Debug("found {{amount}} link(s) for {{entity}}", "amount", len(result), "entity", e.String(), "addition", isAddition)
	}
	return result
}

func outgoing(partner *sig.Entity, kind *sig.RelationKind) sig.Link {
	return sig.Link{Partner: partner.Id, Relation: sig.NewRelation(kind), Outgoing: true}
}

func incoming(partner *sig.Entity, kind *sig.RelationKind) sig.Link {
	return sig.Link{Partner: partner.Id, Relation: sig.NewRelation(kind), Outgoing: false}
}

func (s *Searcher) grow(r image.Rectangle) image.Rectangle {
	return r.Inset(-s.margin)
}

func (s *Searcher) candidates(g *sig.Graph, e *sig.Entity, region image.Rectangle, kinds ...sig.Kind) []*sig.Entity {
	var list []*sig.Entity
	for _, o := range g.Intersecting(region) {
		if o.Id != e.Id && !o.Removed && slices.Contains(kinds, o.Kind) {
			list = append(list, o)
		}
	}
	return list
}

// adjacentStems returns the stems touching the left or right side of a
// head.
func (s *Searcher) adjacentStems(g *sig.Graph, head *sig.Entity) []*sig.Entity {
	return utils.FilterSlice(s.candidates(g, head, s.grow(head.Bounds), sig.KIND_STEM), func(stem *sig.Entity) bool {
		return s.atSide(head.Bounds, stem.Bounds)
	})
}

func (s *Searcher) adjacentHeads(g *sig.Graph, stem *sig.Entity) []*sig.Entity {
	return utils.FilterSlice(s.candidates(g, stem, s.grow(stem.Bounds), sig.KIND_HEAD), func(head *sig.Entity) bool {
		return s.atSide(head.Bounds, stem.Bounds)
	})
}

func (s *Searcher) atSide(head, stem image.Rectangle) bool {
	x := geom.Center(stem).X
	return abs(x-head.Min.X) <= s.margin || abs(x-head.Max.X) <= s.margin
}

func (s *Searcher) overlapping(g *sig.Graph, e *sig.Entity, kinds ...sig.Kind) []*sig.Entity {
	return s.candidates(g, e, s.grow(e.Bounds), kinds...)
}

// nearest returns the candidate whose center is closest to the center
// of e.
func (s *Searcher) nearest(e *sig.Entity, list []*sig.Entity) *sig.Entity {
	if len(list) == 0 {
		return nil
	}
	c := e.Center()
	return slices.MinFunc(list, func(a, b *sig.Entity) int {
		if r := cmp.Compare(geom.Distance(c, a.Center()), geom.Distance(c, b.Center())); r != 0 {
			return r
		}
		return cmp.Compare(a.Id, b.Id)
	})
}

// dotTarget returns the closest head left of an augmentation dot.
func (s *Searcher) dotTarget(g *sig.Graph, dot *sig.Entity, isAddition bool) *sig.Entity {
	c := dot.Center()
	region := image.Rect(c.X-s.dotGap, dot.Bounds.Min.Y-s.margin, dot.Bounds.Min.X, dot.Bounds.Max.Y+s.margin)
	list := utils.FilterSlice(s.candidates(g, dot, region, sig.KIND_HEAD), func(h *sig.Entity) bool {
		if h.Center().X >= c.X {
			return false
		}
		return !isAddition || len(g.Incoming(h.Id, sig.REL_AUGMENTATION)) == 0
	})
	return s.nearest(dot, list)
}

// slurLinks connects each side of a slur with the closest head.
func (s *Searcher) slurLinks(g *sig.Graph, slur *sig.Entity) []sig.Link {
	var result []sig.Link
	b := slur.Bounds
	w := max(b.Dx()/4, s.margin)
	for _, side := range []image.Rectangle{
		image.Rect(b.Min.X-s.margin, b.Min.Y-s.dotGap, b.Min.X+w, b.Max.Y+s.dotGap),
		image.Rect(b.Max.X-w, b.Min.Y-s.dotGap, b.Max.X+s.margin, b.Max.Y+s.dotGap),
	} {
		if h := s.nearestTo(geom.Center(side), s.candidates(g, slur, side, sig.KIND_HEAD)); h != nil {
			if !slices.ContainsFunc(result, func(l sig.Link) bool { return l.Partner == h.Id }) {
				result = append(result, outgoing(h, sig.REL_SLUR_HEAD))
			}
		}
	}
	return result
}

// syllableChord returns the closest head chord above a lyric item
// overlapping it horizontally.
func (s *Searcher) syllableChord(g *sig.Graph, item *sig.Entity) *sig.Entity {
	var best *sig.Entity
	bestDist := math.MaxInt
	for _, c := range g.Entities() {
		if c.Kind != sig.KIND_HEAD_CHORD || c.Bounds.Max.Y > item.Bounds.Min.Y {
			continue
		}
		if c.Bounds.Max.X < item.Bounds.Min.X-s.margin || c.Bounds.Min.X > item.Bounds.Max.X+s.margin {
			continue
		}
		if d := item.Bounds.Min.Y - c.Bounds.Max.Y; d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func (s *Searcher) nearestTo(pt image.Point, list []*sig.Entity) *sig.Entity {
	if len(list) == 0 {
		return nil
	}
	return slices.MinFunc(list, func(a, b *sig.Entity) int {
		if r := cmp.Compare(geom.Distance(pt, a.Center()), geom.Distance(pt, b.Center())); r != 0 {
			return r
		}
		return cmp.Compare(a.Id, b.Id)
	})
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
