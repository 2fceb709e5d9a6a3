package edit

import (
	"cmp"
	"fmt"
	"image"
	"slices"

	"github.com/mandelsoft/interedit/pkg/geom"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/tasks"
)

// AddText adds the text recognized in a glyph to the closest system.
// Every text line is represented by a sentence containing its words.
// For lyrics, lyric lines of lyric items are used.
func (c *Controller) AddText(glyph *sheet.Glyph, lyrics bool) *Job {
	const name = "add text"
	if c.recognizer == nil || !c.recognizer.Available() {
		c.log.Info("no text recognition available, {{glyph}} skipped", "glyph", glyph.Id)
		return c.abort(name, ErrUnavailable)
	}

	return c.perform(name, nil, func(list *tasks.TaskList) error {
		center := geom.Center(glyph.Bounds)
		sys := c.sheet.ClosestSystem(center)
		if sys == nil {
			return fmt.Errorf("%w for %v", ErrNoStaff, center)
		}
		lines, err := c.recognizer.Recognize(glyph, lyrics)
		if err != nil {
			return fmt.Errorf("text recognition of glyph %d: %w", glyph.Id, err)
		}

		g := sys.Graph()
		for _, line := range lines {
			if len(line.Words) == 0 {
				continue
			}
			staff := closestStaff(sys, geom.Center(line.Bounds))
			if staff == nil {
				return fmt.Errorf("%s: %w", sys, ErrNoStaff)
			}

			var sentence *sig.Entity
			for _, w := range line.Words {
				word := g.NewEntity(sig.KIND_WORD)
				if lyrics {
					word.Kind = sig.KIND_LYRIC_ITEM
				}
				word.Bounds = w.Bounds
				word.Staff = staff.Id()
				word.Glyph = glyph.Id
				word.Manual = true
				word.SetAttribute(sig.ATTR_VALUE, w.Value)

				if sentence != nil {
					list.Add(tasks.NewAddition(g, word, sig.Link{Partner: sentence.Id, Relation: sig.NewRelation(sig.REL_CONTAINMENT), Outgoing: false}))
					continue
				}
				sentence = g.NewEntity(sentenceKind(line.Role, lyrics))
				sentence.Bounds = line.Bounds
				sentence.Staff = staff.Id()
				sentence.Manual = true
				role := line.Role
				if lyrics {
					role = ROLE_LYRICS
				}
				sentence.SetAttribute(sig.ATTR_ROLE, role)
				list.Add(tasks.NewAddition(g, word))
				list.Add(tasks.NewAddition(g, sentence, containment(word.Id)))
			}
			c.log.Debug("text line {{sentence}} with {{count}} word(s)", "sentence", sentence.String(), "count", len(line.Words))
		}
		return nil
	})
}

func sentenceKind(role string, lyrics bool) sig.Kind {
	switch {
	case lyrics || role == ROLE_LYRICS:
		return sig.KIND_LYRIC_LINE
	case role == ROLE_CHORD_NAME:
		return sig.KIND_CHORD_NAME
	default:
		return sig.KIND_SENTENCE
	}
}

func closestStaff(sys *sheet.System, pt image.Point) *sheet.Staff {
	staves := sys.Staves()
	if len(staves) == 0 {
		return nil
	}
	return slices.MinFunc(staves, func(a, b *sheet.Staff) int {
		return cmp.Compare(a.DistanceTo(pt), b.DistanceTo(pt))
	})
}

// ChangeWord changes the textual value of a word or lyric item.
func (c *Controller) ChangeWord(word *sig.Entity, value string) *Job {
	return c.changeAttribute("change word", word, sig.ATTR_VALUE, value, sig.KIND_WORD, sig.KIND_LYRIC_ITEM)
}

// ChangeSentenceRole changes the role of a text line.
func (c *Controller) ChangeSentenceRole(sentence *sig.Entity, role string) *Job {
	return c.changeAttribute("change role", sentence, sig.ATTR_ROLE, role, sig.KIND_SENTENCE, sig.KIND_LYRIC_LINE, sig.KIND_CHORD_NAME)
}

func (c *Controller) changeAttribute(name string, e *sig.Entity, attr, value string, kinds ...sig.Kind) *Job {
	return c.perform(name, nil, func(list *tasks.TaskList) error {
		if !slices.Contains(kinds, e.Kind) {
			return fmt.Errorf("%s has no attribute %s: %w", e, attr, ErrInvalidRequest)
		}
		g, err := c.graphOf(e)
		if err != nil {
			return err
		}
		list.Add(tasks.NewAttributeChange(g, e, attr, value))
		return nil
	})
}
