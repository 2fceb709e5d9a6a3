package scenario

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/pipeline"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
)

// Session is a sheet built from a scenario together with the
// controller used to edit it.
type Session struct {
	log        logging.Logger
	scenario   *Scenario
	sheet      *sheet.Sheet
	stages     pipeline.Stages
	prompter   *Prompter
	controller *edit.Controller

	glyphs map[string]*sheet.Glyph
	names  map[string]*sig.Entity
	steps  []StepReport
}

// NewSession builds the sheet of a scenario. Additional controller
// options may be given, for example a selection publisher.
func NewSession(lctx logging.Context, s *Scenario, opts ...edit.Option) (*Session, error) {
	sh := sheet.New(s.Name)
	// staves capture the slope when they are created
	sh.SetSlope(s.Slope)
	if s.StemThickness > 0 {
		sh.SetStemThickness(s.StemThickness)
	}
	for _, sys := range s.Systems {
		n := sh.AddSystem()
		for _, st := range sys.Staves {
			sh.AddStaff(n, st.Left, st.Right, st.Top, st.Bottom)
		}
	}
	sh.SetLatestStep(s.Latest)

	session := &Session{
		log:      lctx.Logger(REALM).WithValues("scenario", s.Name),
		scenario: s,
		sheet:    sh,
		stages:   pipeline.Default(lctx),
		prompter: NewPrompter(s.Prompts),
		glyphs:   map[string]*sheet.Glyph{},
		names:    map[string]*sig.Entity{},
	}
	for _, g := range s.Glyphs {
		session.glyphs[g.Name] = sh.RegisterGlyph(g.Bounds.Rectangle())
	}

	for _, e := range s.Entities {
		n := session.entity(e)
		sys := sh.SystemOf(n)
		if err := sys.Graph().AddEntity(n); err != nil {
			return nil, fmt.Errorf("entity %s: %w", n, err)
		}
		if e.Name != "" {
			session.names[e.Name] = n
		}
	}
	for i, r := range s.Relations {
		src, tgt := session.names[r.Source], session.names[r.Target]
		sys := sh.SystemOf(src)
		if sh.SystemOf(tgt) != sys {
			return nil, fmt.Errorf("relation %d: endpoints in different systems", i+1)
		}
		if err := sys.Graph().AddRelation(src.Id, tgt.Id, sig.NewRelation(sig.GetRelationKind(r.Kind))); err != nil {
			return nil, fmt.Errorf("relation %d: %w", i+1, err)
		}
	}

	recognizer := &Recognizer{lines: map[sig.GlyphId][]edit.TextLine{}}
	for _, t := range s.Texts {
		var lines []edit.TextLine
		for _, l := range t.Lines {
			lines = append(lines, l.TextLine())
		}
		recognizer.lines[session.glyphs[t.Glyph].Id] = lines
	}

	cfg := s.Settings.Apply(edit.DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := []edit.Option{
		edit.WithConfig(cfg),
		edit.WithPrompter(session.prompter),
		edit.WithTextRecognizer(recognizer),
	}
	session.controller = edit.New(lctx, sh, session.stages, append(options, opts...)...)
	session.log.Info("created sheet with {{systems}} systems and {{entities}} interpretations", "systems", len(s.Systems), "entities", len(s.Entities))
	return session, nil
}

func (s *Session) Sheet() *sheet.Sheet {
	return s.sheet
}

func (s *Session) Controller() *edit.Controller {
	return s.controller
}

func (s *Session) Stages() pipeline.Stages {
	return s.stages
}

func (s *Session) Close() error {
	return s.controller.Close()
}

// Entity resolves an entity reference. A reference is either the name
// given in the scenario or the entity string kind#id.
func (s *Session) Entity(ref string) (*sig.Entity, error) {
	if e := s.names[ref]; e != nil {
		return e, nil
	}
	kind, id, ok := strings.Cut(ref, "#")
	if ok {
		n, err := strconv.ParseUint(id, 10, 64)
		if err == nil {
			for _, sys := range s.sheet.Systems() {
				if e := sys.Graph().Entity(sig.EntityId(n)); e != nil && string(e.Kind) == kind {
					return e, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("entity %q: %w", ref, sig.ErrUnknownEntity)
}

func (s *Session) entities(refs []string) ([]*sig.Entity, error) {
	var list []*sig.Entity
	for _, r := range refs {
		e, err := s.Entity(r)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

func (s *Session) glyph(name string) (*sheet.Glyph, error) {
	if g := s.glyphs[name]; g != nil {
		return g, nil
	}
	return nil, fmt.Errorf("unknown glyph %q", name)
}

func (s *Session) entity(e Entity) *sig.Entity {
	n := s.sheet.IdSource().NewEntity(e.Kind)
	n.Bounds = e.Bounds.Rectangle()
	n.Staff = e.Staff
	if e.Glyph != "" {
		n.Glyph = s.glyphs[e.Glyph].Id
	}
	for k, v := range e.Attributes {
		n.SetAttribute(k, v)
	}
	return n
}

func (s *Session) systemOf(e *sig.Entity) (*sheet.System, error) {
	if sys := s.sheet.SystemOf(e); sys != nil {
		return sys, nil
	}
	return nil, fmt.Errorf("%s: no system: %w", e, sig.ErrUnknownEntity)
}

// Run executes all operations of the scenario. It stops at the first
// operation not behaving as expected.
func (s *Session) Run(ctx context.Context) error {
	for i, op := range s.scenario.Operations {
		if _, err := s.Apply(ctx, op); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i+1, op, err)
		}
	}
	return nil
}

// Apply executes a single operation and checks the outcome against
// the expected error.
func (s *Session) Apply(ctx context.Context, op Operation) (*StepReport, error) {
	res, err := s.apply(ctx, op)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	step := StepReport{Operation: op.String()}
	if res != nil {
		step.Operation = res.Operation + " " + op.String()
		if res.List != nil {
			step.List = res.List.Name()
			step.Tasks = res.List.Len()
		}
		step.Impacted = res.Impacted
		for _, id := range res.Selection {
			step.Selection = append(step.Selection, s.describe(id))
		}
	}
	if err != nil {
		step.Error = err.Error()
	}
	s.steps = append(s.steps, step)

	switch {
	case op.Error == "" && err != nil:
		s.log.LogError(err, "operation {{operation}} failed", "operation", op.String())
		return &step, err
	case op.Error != "" && err == nil:
		return &step, fmt.Errorf("expected error %q", op.Error)
	case op.Error != "" && !strings.Contains(err.Error(), op.Error):
		return &step, fmt.Errorf("expected error %q, but got %q", op.Error, err)
	}
	s.log.Debug("operation {{operation}} done", "operation", op.String())
	return &step, nil
}

func (s *Session) apply(ctx context.Context, op Operation) (*edit.Result, error) {
	var (
		job   *edit.Job
		added map[string]*sig.Entity
	)
	c := s.controller

	switch op.Op {
	case OP_ADD:
		added = map[string]*sig.Entity{}
		var ghosts []*sig.Entity
		for _, e := range op.Entities {
			if _, ok := s.glyphs[e.Glyph]; e.Glyph != "" && !ok {
				return nil, fmt.Errorf("unknown glyph %q", e.Glyph)
			}
			n := s.entity(e)
			n.Manual = true
			ghosts = append(ghosts, n)
			if e.Name != "" {
				added[e.Name] = n
			}
		}
		job = c.AddEntities(ghosts)
	case OP_REMOVE, OP_REMOVE_SELECTION, OP_MERGE_CHORDS:
		list, err := s.entities(op.Targets)
		if err != nil {
			return nil, err
		}
		switch op.Op {
		case OP_REMOVE:
			job = c.RemoveEntities(list)
		case OP_REMOVE_SELECTION:
			job = c.RemoveSelection(list)
		default:
			job = c.MergeChords(list, op.WithStem)
		}
	case OP_LINK, OP_UNLINK:
		src, err := s.Entity(op.Source)
		if err != nil {
			return nil, err
		}
		tgt, err := s.Entity(op.Target)
		if err != nil {
			return nil, err
		}
		sys, err := s.systemOf(src)
		if err != nil {
			return nil, err
		}
		kind := sig.GetRelationKind(op.Kind)
		if kind == nil {
			return nil, fmt.Errorf("unknown relation kind %q", op.Kind)
		}
		if op.Op == OP_LINK {
			job = c.Link(sys, src, tgt, sig.NewRelation(kind))
		} else {
			rel := sys.Graph().RelationBetween(src.Id, tgt.Id, kind)
			if rel == nil {
				rel = sig.NewRelation(kind)
			}
			job = c.Unlink(sys, rel)
		}
	case OP_SPLIT_CHORD, OP_CHANGE_WORD, OP_CHANGE_ROLE:
		e, err := s.Entity(op.Target)
		if err != nil {
			return nil, err
		}
		switch op.Op {
		case OP_SPLIT_CHORD:
			job = c.SplitChord(e)
		case OP_CHANGE_WORD:
			job = c.ChangeWord(e, op.Value)
		default:
			job = c.ChangeSentenceRole(e, op.Value)
		}
	case OP_MERGE_SYSTEMS:
		sys := s.sheet.System(op.System)
		if sys == nil {
			return nil, fmt.Errorf("unknown system %d", op.System)
		}
		job = c.MergeSystems(sys)
	case OP_REPROCESS_RHYTHM:
		var sys *sheet.System
		if op.System != 0 {
			if sys = s.sheet.System(op.System); sys == nil {
				return nil, fmt.Errorf("unknown system %d", op.System)
			}
		}
		job = c.ReprocessRhythm(sys)
	case OP_ASSIGN, OP_ADD_TEXT:
		g, err := s.glyph(op.Glyph)
		if err != nil {
			return nil, err
		}
		if op.Op == OP_ASSIGN {
			job = c.AssignGlyph(g, sig.Kind(op.Kind))
		} else {
			job = c.AddText(g, op.Lyrics)
		}
	case OP_UNDO:
		job = c.Undo()
	case OP_REDO:
		job = c.Redo()
	case OP_CLEAR_HISTORY:
		c.ClearHistory()
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op.Op)
	}

	res, err := job.Wait(ctx)
	if err == nil {
		for n, e := range added {
			s.names[n] = e
		}
	}
	return res, err
}

// describe returns the scenario name or the entity string of an
// interpretation.
func (s *Session) describe(id sig.EntityId) string {
	for n, e := range s.names {
		if e.Id == id {
			return n
		}
	}
	for _, sys := range s.sheet.Systems() {
		if e := sys.Graph().Entity(id); e != nil {
			return e.String()
		}
	}
	return fmt.Sprintf("#%d", id)
}
