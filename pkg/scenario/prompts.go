package scenario

import (
	"fmt"
	"slices"
	"sync"

	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
)

// Prompter answers the questions of a controller from the scripted
// prompts of a scenario.
type Prompter struct {
	lock    sync.Mutex
	confirm []bool
	staff   []int
	asked   []string
}

var _ edit.Prompter = (*Prompter)(nil)

func NewPrompter(p Prompts) *Prompter {
	return &Prompter{
		confirm: slices.Clone(p.Confirm),
		staff:   slices.Clone(p.Staff),
	}
}

func (p *Prompter) Confirm(question, title string) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.asked = append(p.asked, question)
	if len(p.confirm) == 0 {
		return false
	}
	answer := p.confirm[0]
	p.confirm = p.confirm[1:]
	return answer
}

func (p *Prompter) ChooseStaff(candidates []*sheet.Staff) (int, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.asked = append(p.asked, fmt.Sprintf("choose staff of %d", len(candidates)))
	if len(p.staff) == 0 {
		return -1, false
	}
	answer := p.staff[0]
	p.staff = p.staff[1:]
	return answer, answer >= 0
}

// Asked returns the questions asked so far.
func (p *Prompter) Asked() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return slices.Clone(p.asked)
}

// Recognizer provides the scripted text lines per glyph.
type Recognizer struct {
	lines map[sig.GlyphId][]edit.TextLine
}

var _ edit.TextRecognizer = (*Recognizer)(nil)

func (r *Recognizer) Available() bool {
	return len(r.lines) > 0
}

func (r *Recognizer) Recognize(glyph *sheet.Glyph, lyrics bool) ([]edit.TextLine, error) {
	lines, ok := r.lines[glyph.Id]
	if !ok {
		return nil, fmt.Errorf("no text for glyph %d", glyph.Id)
	}
	return lines, nil
}
