package edit

import (
	"cmp"
	"fmt"
	"image"
	"slices"

	"github.com/mandelsoft/interedit/pkg/geom"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/tasks"
	"github.com/mandelsoft/interedit/pkg/utils"
)

// MergeChords replaces head chords of a system by a single compound
// chord holding all their heads. With withStem the chord stems are
// replaced by a compound stem, too.
func (c *Controller) MergeChords(chords []*sig.Entity, withStem bool) *Job {
	const name = "merge chords"
	return c.perform(name, nil, func(list *tasks.TaskList) error {
		if len(chords) < 2 {
			return fmt.Errorf("%s requires at least two chords: %w", name, ErrInvalidRequest)
		}
		g, err := c.graphOf(chords[0])
		if err != nil {
			return err
		}
		for _, ch := range chords {
			if ch.Kind != sig.KIND_HEAD_CHORD || !g.Contains(ch.Id) {
				return fmt.Errorf("%s is no head chord of %s: %w", ch, g, ErrInvalidRequest)
			}
			if withStem && g.ChordStem(ch.Id) == nil {
				return fmt.Errorf("%s has no stem: %w", ch, ErrInvalidRequest)
			}
		}

		heads := utils.NewOrderedSet[*sig.Entity]()
		for _, ch := range chords {
			heads.Add(g.Notes(ch.Id)...)
		}
		members := heads.List()
		slices.SortStableFunc(members, sig.ByReverseCenterOrdinate)

		chord := g.NewEntity(sig.KIND_HEAD_CHORD)
		chord.Bounds = geom.Union(boundsOf(chords)...)
		chord.Staff = chords[0].Staff
		chord.Manual = true

		var links []sig.Link
		for _, h := range members {
			links = append(links, containment(h.Id))
		}

		// transfer the support relations to the compound chord
		transferred := map[*sig.RelationKind]bool{}
		for _, ch := range chords {
			for _, r := range g.Relations(ch.Id) {
				if !r.Kind.Support {
					continue
				}
				if r.Kind == sig.REL_CHORD_STEM && withStem {
					continue
				}
				outgoing := r.Source == ch.Id
				if outgoing && r.Kind.SingleTarget {
					if transferred[r.Kind] {
						c.log.Debug("dropping additional {{relation}}", "relation", r.String())
						continue
					}
					transferred[r.Kind] = true
				}
				links = append(links, sig.Link{Partner: g.Opposite(ch.Id, r), Relation: r.Duplicate(), Outgoing: outgoing})
				list.Add(tasks.NewUnlink(g, r))
			}
		}
		for _, ch := range chords {
			for _, r := range g.Outgoing(ch.Id, sig.REL_CONTAINMENT) {
				list.Add(tasks.NewUnlink(g, r))
			}
		}
		list.Add(tasks.NewAddition(g, chord, links...))

		if withStem {
			var stems []*sig.Entity
			for _, ch := range chords {
				stems = utils.AppendUnique(stems, g.ChordStem(ch.Id))
			}
			slices.SortStableFunc(stems, sig.ByCenterOrdinate)

			stem := g.NewEntity(sig.KIND_STEM)
			stem.Bounds = geom.Union(boundsOf(stems)...)
			stem.Staff = stems[0].Staff
			stem.Manual = true
			if glyphs := c.glyphBounds(stems); len(glyphs) > 0 {
				stem.Glyph = c.sheet.RegisterGlyph(geom.Union(glyphs...)).Id
			}

			var stemLinks []sig.Link
			for _, h := range members {
				stemLinks = append(stemLinks, sig.Link{Partner: h.Id, Relation: sig.NewRelation(sig.REL_HEAD_STEM), Outgoing: false})
			}
			for _, st := range stems {
				for _, r := range g.Relations(st.Id, sig.REL_BEAM_STEM, sig.REL_FLAG_STEM) {
					stemLinks = append(stemLinks, sig.Link{Partner: g.Opposite(st.Id, r), Relation: r.Duplicate(), Outgoing: r.Source == st.Id})
				}
			}
			list.Add(tasks.NewAddition(g, stem, stemLinks...))
			list.Add(tasks.NewLink(g, chord.Id, stem.Id, sig.NewRelation(sig.REL_CHORD_STEM)))
			for _, st := range stems {
				list.Add(tasks.NewRemoval(g, st))
			}
		}

		for _, ch := range chords {
			list.Add(tasks.NewRemoval(g, ch))
		}
		c.log.Debug("merge {{chords}} into {{chord}}", "chords", entityIds(chords), "chord", chord.String())
		return nil
	})
}

// SplitChord splits a head chord into two chords at the largest
// vertical gap between its heads. A chord stem is split accordingly.
func (c *Controller) SplitChord(chord *sig.Entity) *Job {
	const name = "split chord"
	return c.perform(name, nil, func(list *tasks.TaskList) error {
		g, err := c.graphOf(chord)
		if err != nil {
			return err
		}
		if chord.Kind != sig.KIND_HEAD_CHORD {
			return fmt.Errorf("%s is no head chord: %w", chord, ErrInvalidRequest)
		}
		notes := g.Notes(chord.Id)
		partitions := partitionHeads(notes)
		if partitions == nil {
			return fmt.Errorf("%s has less than two heads: %w", chord, ErrInvalidRequest)
		}

		for _, r := range g.Outgoing(chord.Id, sig.REL_CONTAINMENT) {
			list.Add(tasks.NewUnlink(g, r))
		}

		var subChords [2]*sig.Entity
		for i, p := range partitions {
			var links []sig.Link
			for _, h := range p {
				links = append(links, containment(h.Id))
			}
			ch := g.NewEntity(sig.KIND_HEAD_CHORD)
			ch.Bounds = geom.Union(boundsOf(p)...)
			ch.Staff = p[0].Staff
			ch.Manual = true
			subChords[i] = ch
			list.Add(tasks.NewAddition(g, ch, links...))
		}

		stem := g.ChordStem(chord.Id)
		var tail image.Point
		yDir := 0
		if stem != nil {
			center := geom.Center(geom.Union(boundsOf(notes)...))
			tail = chordTail(center, stem)
			yDir = cmp.Compare(tail.Y, center.Y)
		}

		list.Add(tasks.NewRemoval(g, chord))

		if stem != nil {
			boxes := c.subStemBounds(stem, tail, yDir, partitions)
			for i, p := range partitions {
				s := g.NewEntity(sig.KIND_STEM)
				s.Bounds = boxes[i]
				s.Staff = stem.Staff
				s.Manual = true

				var links []sig.Link
				for _, h := range p {
					links = append(links, sig.Link{Partner: h.Id, Relation: sig.NewRelation(sig.REL_HEAD_STEM), Outgoing: false})
				}
				// beams and flags stay at the tail side
				if (yDir < 0 && i == 1) || (yDir > 0 && i == 0) {
					for _, r := range g.Relations(stem.Id, sig.REL_BEAM_STEM, sig.REL_FLAG_STEM) {
						links = append(links, sig.Link{Partner: g.Opposite(stem.Id, r), Relation: r.Duplicate(), Outgoing: r.Source == stem.Id})
					}
				}
				list.Add(tasks.NewAddition(g, s, links...))
				list.Add(tasks.NewLink(g, subChords[i].Id, s.Id, sig.NewRelation(sig.REL_CHORD_STEM)))
			}
			list.Add(tasks.NewRemoval(g, stem))
		}
		c.log.Debug("split {{chord}} into {{parts}}", "chord", chord.String(), "parts", []string{subChords[0].String(), subChords[1].String()})
		return nil
	})
}

// partitionHeads splits bottom up ordered heads into two contiguous
// groups at the largest vertical gap. It returns nil for less than two
// heads.
func partitionHeads(notes []*sig.Entity) [][]*sig.Entity {
	if len(notes) < 2 {
		return nil
	}
	best, maxDy := 1, 0
	for i := 1; i < len(notes); i++ {
		dy := notes[i-1].Center().Y - notes[i].Center().Y
		if i == 1 || dy > maxDy {
			best, maxDy = i, dy
		}
	}
	return [][]*sig.Entity{slices.Clone(notes[:best]), slices.Clone(notes[best:])}
}

// chordTail returns the end of the stem away from the heads.
func chordTail(heads image.Point, stem *sig.Entity) image.Point {
	median := stem.GetMedian()
	top, bottom := median.P1.Rounded(), median.P2.Rounded()
	if top.Y > bottom.Y {
		top, bottom = bottom, top
	}
	if heads.Y > stem.Center().Y {
		return top
	}
	return bottom
}

// subStemBounds computes the bounds of the sub stems for the bottom
// and top partition.
func (c *Controller) subStemBounds(stem *sig.Entity, tail image.Point, yDir int, partitions [][]*sig.Entity) [2]image.Rectangle {
	var boxes [2]image.Rectangle
	median := stem.GetMedian()
	width := c.sheet.StemThickness()

	for i, p := range partitions {
		var top, bottom int
		last := p[len(p)-1]
		switch {
		case i == 0 && yDir < 0:
			top = partitions[1][0].Center().Y
			bottom = p[0].Center().Y
		case i == 0:
			top = last.Center().Y
			bottom = tail.Y
		case yDir < 0:
			top = tail.Y
			bottom = p[0].Center().Y
		default:
			p0 := partitions[0]
			top = last.Center().Y
			bottom = p0[len(p0)-1].Center().Y
		}
		boxes[i] = geom.VerticalParallelogram(
			median.IntersectionAtY(float64(top)).Rounded(),
			median.IntersectionAtY(float64(bottom)).Rounded(),
			width)
	}
	return boxes
}

func (c *Controller) glyphBounds(entities []*sig.Entity) []image.Rectangle {
	var list []image.Rectangle
	for _, e := range entities {
		if gl := c.sheet.Glyph(e.Glyph); e.Glyph != 0 && gl != nil {
			list = append(list, gl.Bounds)
		}
	}
	return list
}

func boundsOf(entities []*sig.Entity) []image.Rectangle {
	return utils.TransformSlice(entities, func(e *sig.Entity) image.Rectangle { return e.Bounds })
}
