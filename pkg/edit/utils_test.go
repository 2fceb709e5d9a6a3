package edit_test

import (
	"context"
	"image"
	"slices"
	"sync"
	"time"

	"github.com/mandelsoft/logging"
	. "github.com/mandelsoft/interedit/pkg/testutils"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/pipeline"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/watch"
)

// prompter answers confirmations and staff choices from a script.
type prompter struct {
	lock      sync.Mutex
	confirm   bool
	staff     int
	questions []string
}

var _ edit.Prompter = (*prompter)(nil)

func (p *prompter) Confirm(question, title string) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.questions = append(p.questions, question)
	return p.confirm
}

func (p *prompter) ChooseStaff(candidates []*sheet.Staff) (int, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.questions = append(p.questions, "staff")
	return p.staff, p.staff >= 0
}

func (p *prompter) Questions() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return slices.Clone(p.questions)
}

// recognizer returns fixed text lines.
type recognizer struct {
	lines []edit.TextLine
}

func (r *recognizer) Available() bool {
	return true
}

func (r *recognizer) Recognize(glyph *sheet.Glyph, lyrics bool) ([]edit.TextLine, error) {
	return r.lines, nil
}

// fixture is a sheet with two systems of two staves each.
//
//	system#1: staff#1 100-140, staff#2 200-240
//	system#2: staff#3 400-440, staff#4 500-540
type fixture struct {
	ctx        context.Context
	sheet      *sheet.Sheet
	sys1, sys2 *sheet.System
	stages     pipeline.Stages
	prompter   *prompter
	recorder   *watch.Recorder
	registry   *prometheus.Registry
	controller *edit.Controller
}

func newFixture(opts ...edit.Option) *fixture {
	lctx := logging.DefaultContext()
	f := &fixture{
		ctx:      context.Background(),
		sheet:    sheet.New("test"),
		prompter: &prompter{confirm: true, staff: 0},
		recorder: &watch.Recorder{},
		registry: prometheus.NewRegistry(),
	}
	f.sys1 = f.sheet.AddSystem()
	f.sheet.AddStaff(f.sys1, 0, 1000, 100, 140)
	f.sheet.AddStaff(f.sys1, 0, 1000, 200, 240)
	f.sys2 = f.sheet.AddSystem()
	f.sheet.AddStaff(f.sys2, 0, 1000, 400, 440)
	f.sheet.AddStaff(f.sys2, 0, 1000, 500, 540)
	f.sheet.SetLatestStep(sheet.STEP_PAGE)
	f.stages = pipeline.Default(lctx)

	publisher := watch.NewRegistry()
	publisher.RegisterWatchHandler(watch.Request{Sheet: "test"}, f.recorder)

	opts = append([]edit.Option{
		edit.WithPrompter(f.prompter),
		edit.WithPublisher(publisher),
		edit.WithRegisterer(f.registry),
	}, opts...)
	f.controller = edit.New(lctx, f.sheet, f.stages, opts...)
	return f
}

func (f *fixture) Close() {
	MustBeSuccessful(f.controller.Close())
}

// add puts an interpretation directly into the graph of a staff.
func (f *fixture) add(kind sig.Kind, staff sig.StaffId, r image.Rectangle) *sig.Entity {
	sys := f.sheet.Staff(staff).System()
	e := sys.Graph().NewEntity(kind)
	e.Bounds = r
	e.Staff = staff
	ExpectWithOffset(1, sys.Graph().AddEntity(e)).To(Succeed())
	return e
}

func (f *fixture) relate(src *sig.Entity, kind *sig.RelationKind, tgt *sig.Entity) *sig.Relation {
	g := f.sheet.Staff(src.Staff).System().Graph()
	r := sig.NewRelation(kind)
	ExpectWithOffset(1, g.AddRelation(src.Id, tgt.Id, r)).To(Succeed())
	return r
}

// ghost creates an interpretation not yet part of any graph.
func (f *fixture) ghost(kind sig.Kind, staff sig.StaffId, r image.Rectangle) *sig.Entity {
	e := f.sheet.IdSource().NewEntity(kind)
	e.Bounds = r
	e.Staff = staff
	return e
}

// run waits for a job expected to succeed.
func (f *fixture) run(j *edit.Job) *edit.Result {
	ctx, cancel := context.WithTimeout(f.ctx, 10*time.Second)
	defer cancel()
	res, err := j.Wait(ctx)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return res
}

// fail waits for a job expected to fail.
func (f *fixture) fail(j *edit.Job) error {
	ctx, cancel := context.WithTimeout(f.ctx, 10*time.Second)
	defer cancel()
	_, err := j.Wait(ctx)
	ExpectWithOffset(1, err).To(HaveOccurred())
	return err
}

// digest returns the content digests of all systems.
func (f *fixture) digest() []string {
	var list []string
	for _, sys := range f.sheet.Systems() {
		list = append(list, sys.Graph().Digest())
	}
	return list
}

func (f *fixture) graph(staff sig.StaffId) *sig.Graph {
	return f.sheet.Staff(staff).System().Graph()
}

func kindsOf(list []*sig.Entity) []sig.Kind {
	var kinds []sig.Kind
	for _, e := range list {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// stage returns the recording stage of the fixture pipeline for a step.
func (f *fixture) stage(step sheet.Step) *pipeline.KindStage {
	for _, s := range f.stages {
		if s.Step() == step {
			return s.(*pipeline.KindStage)
		}
	}
	return nil
}
