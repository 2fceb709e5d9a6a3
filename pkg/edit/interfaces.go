package edit

import (
	"image"

	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/watch"
)

// LinkSearcher provides the candidate relations of an interpretation
// with the interpretations of a system.
type LinkSearcher interface {
	SearchLinks(e *sig.Entity, system *sheet.System, isAddition bool) []sig.Link
}

// Prompter asks the user. A controller without prompter runs headless
// and aborts every operation requiring a decision.
type Prompter interface {
	Confirm(question, title string) bool
	// ChooseStaff returns the index of the chosen candidate. false
	// means no choice.
	ChooseStaff(candidates []*sheet.Staff) (int, bool)
}

// SelectionPublisher is notified about the selection after every edit.
type SelectionPublisher interface {
	Publish(s watch.Selection)
}

const (
	ROLE_LYRICS     = "lyrics"
	ROLE_CHORD_NAME = "chord-name"
	ROLE_DIRECTION  = "direction"
)

type TextWord struct {
	Bounds image.Rectangle `json:"bounds"`
	Value  string          `json:"value"`
}

type TextLine struct {
	Bounds image.Rectangle `json:"bounds"`
	Role   string          `json:"role,omitempty"`
	Words  []TextWord      `json:"words"`
}

// TextRecognizer extracts text lines from a glyph.
type TextRecognizer interface {
	Available() bool
	Recognize(glyph *sheet.Glyph, lyrics bool) ([]TextLine, error)
}

// Dispatcher executes the publish step on the interactive thread.
type Dispatcher interface {
	Invoke(f func())
}

// DirectDispatcher calls the function synchronously.
type DirectDispatcher struct{}

func (DirectDispatcher) Invoke(f func()) {
	f()
}
