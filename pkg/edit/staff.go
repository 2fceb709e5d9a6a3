package edit

import (
	"cmp"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/mandelsoft/interedit/pkg/geom"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
)

// AssignGlyph creates a manual interpretation of the given kind for a
// glyph and adds it to the staff it belongs to. Text kinds are handled
// by AddText.
func (c *Controller) AssignGlyph(glyph *sheet.Glyph, kind sig.Kind) *Job {
	if kind.IsText() {
		return c.AddText(glyph, kind == sig.KIND_LYRICS)
	}

	name := fmt.Sprintf("assign %s", kind)
	ghost := c.sheet.IdSource().NewEntity(kind)
	ghost.Bounds = glyph.Bounds
	ghost.Glyph = glyph.Id
	ghost.Manual = true

	staff, err := c.determineStaff(glyph, ghost)
	if err != nil {
		return c.abort(name, err)
	}

	// barlines are exactly one staff high
	if kind.IsBarline() {
		box := ghost.Bounds
		x := float64(box.Min.X)
		y1 := int(math.Round(staff.FirstLineY(x)))
		y2 := int(math.Round(staff.LastLineY(x)))
		ghost.Bounds = image.Rect(box.Min.X, y1, box.Max.X, y2+1)
		ghost.Glyph = 0
	}
	ghost.Staff = staff.Id()
	return c.AddEntities([]*sig.Entity{ghost})
}

// determineStaff finds the staff a glyph based interpretation belongs
// to. The user is prompted if the staff cannot be determined
// automatically.
func (c *Controller) determineStaff(glyph *sheet.Glyph, ghost *sig.Entity) (*sheet.Staff, error) {
	center := geom.Center(glyph.Bounds)

	c.sheet.RLock()
	staff, staves := c.guessStaff(center, ghost)
	c.sheet.RUnlock()

	if len(staves) == 0 {
		return nil, fmt.Errorf("%w for %v", ErrNoStaff, center)
	}
	if staff != nil {
		return staff, nil
	}

	if c.prompter == nil {
		return nil, fmt.Errorf("staff selection for %v requires a prompter: %w", center, ErrAborted)
	}
	i, ok := c.prompter.ChooseStaff(staves)
	if !ok || i < 0 || i >= len(staves) {
		return nil, fmt.Errorf("no staff chosen: %w", ErrAborted)
	}
	return staves[i], nil
}

// guessStaff returns the staff if it is uniquely defined, otherwise the
// candidates ordered by distance.
func (c *Controller) guessStaff(center image.Point, ghost *sig.Entity) (*sheet.Staff, []*sheet.Staff) {
	staves := c.sheet.StavesOf(center)
	if len(staves) == 0 {
		return nil, nil
	}
	if len(staves) == 1 || ghost.Kind.IsBarline() {
		return staves[0], staves
	}

	slices.SortStableFunc(staves, func(a, b *sheet.Staff) int {
		return cmp.Compare(a.DistanceTo(center), b.DistanceTo(center))
	})

	if c.config.UseStaffLink {
		var prev *sheet.System
		for _, st := range staves {
			sys := st.System()
			if sys == prev {
				continue
			}
			prev = sys
			for _, l := range c.searcher.SearchLinks(ghost, sys, false) {
				if p := sys.Graph().Entity(l.Partner); p != nil && p.Staff != 0 {
					if found := c.sheet.Staff(p.Staff); found != nil {
						c.log.Debug("staff {{staff}} determined by link {{link}}", "staff", found.String(), "link", l.String())
						return found, staves
					}
				}
			}
		}
	}

	if c.config.UseStaffProximity {
		best := staves[0].DistanceTo(center)
		other := staves[1].DistanceTo(center)
		if best <= (best+other)*c.config.GutterRatio {
			c.log.Debug("staff {{staff}} determined by proximity", "staff", staves[0].String())
			return staves[0], staves
		}
	}
	return nil, staves
}
