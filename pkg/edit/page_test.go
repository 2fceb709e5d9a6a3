package edit_test

import (
	"image"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/geom"
	"github.com/mandelsoft/interedit/pkg/pipeline"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/tasks"
)

var _ = Describe("page operations", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture()
	})

	AfterEach(func() {
		f.Close()
	})

	Context("system merge", func() {
		It("connects the left barlines", func() {
			up := f.add(sig.KIND_BARLINE, 2, image.Rect(10, 200, 13, 241))
			down := f.add(sig.KIND_BARLINE, 3, image.Rect(10, 400, 13, 441))
			head := f.add(sig.KIND_HEAD, 4, image.Rect(100, 515, 110, 525))
			initial := f.digest()

			res := f.run(f.controller.MergeSystems(f.sys1))
			Expect(f.sheet.Systems()).To(Equal([]*sheet.System{f.sys1}))
			Expect(f.sys1.Staves()).To(HaveLen(4))

			g := f.sys1.Graph()
			Expect(g.Contains(head.Id)).To(BeTrue())
			Expect(g.RelationBetween(up.Id, down.Id, sig.REL_BAR_CONNECTION)).NotTo(BeNil())

			conns := f.sys1.EntitiesOfKind(sig.KIND_CONNECTOR)
			Expect(conns).To(HaveLen(1))
			conn := conns[0]
			Expect(conn.Staff).To(Equal(sig.StaffId(2)))
			Expect(conn.Manual).To(BeTrue())
			Expect(*conn.Median).To(Equal(geom.Line{P1: geom.Point{X: 11.5, Y: 241}, P2: geom.Point{X: 11.5, Y: 400}}))
			Expect(conn.Bounds).To(Equal(image.Rect(10, 241, 14, 401)))
			Expect(*conn.Area).To(Equal(conn.Bounds))
			Expect(res.Impacted).To(Equal([]sheet.Step{sheet.STEP_MEASURES, sheet.STEP_CHORDS, sheet.STEP_CURVES, sheet.STEP_SYMBOLS, sheet.STEP_LINKS, sheet.STEP_RHYTHMS, sheet.STEP_PAGE}))

			f.run(f.controller.Undo())
			Expect(f.sheet.Systems()).To(Equal([]*sheet.System{f.sys1, f.sys2}))
			Expect(f.digest()).To(Equal(initial))
			Expect(f.sys2.Graph().Contains(head.Id)).To(BeTrue())
			Expect(f.sheet.Staff(3).System()).To(BeIdenticalTo(f.sys2))
		})

		It("uses thick connectors for thick barlines", func() {
			f.add(sig.KIND_THICK_BARLINE, 2, image.Rect(10, 200, 15, 241))
			f.add(sig.KIND_BARLINE, 3, image.Rect(10, 400, 13, 441))
			f.run(f.controller.MergeSystems(f.sys1))
			Expect(f.sys1.EntitiesOfKind(sig.KIND_THICK_CONN)).To(HaveLen(1))
		})

		It("merges systems without barlines", func() {
			res := f.run(f.controller.MergeSystems(f.sys1))
			Expect(res.List.Len()).To(Equal(1))
			Expect(f.sheet.Systems()).To(HaveLen(1))
			Expect(f.sys1.EntitiesOfKind(sig.KIND_CONNECTOR)).To(BeEmpty())
		})

		It("rejects the last system", func() {
			err := f.fail(f.controller.MergeSystems(f.sys2))
			Expect(err).To(MatchError(edit.ErrInvalidRequest))
			Expect(f.sheet.Systems()).To(HaveLen(2))
		})
	})

	Context("rhythm", func() {
		It("reprocesses the rhythm without history", func() {
			res := f.run(f.controller.ReprocessRhythm(nil))
			Expect(res.List.Has(tasks.OPT_SKIP_HISTORY)).To(BeTrue())
			Expect(res.Impacted).To(Equal([]sheet.Step{sheet.STEP_RHYTHMS, sheet.STEP_PAGE}))
			Expect(f.controller.CanUndo()).To(BeFalse())
			Expect(f.stage(sheet.STEP_RHYTHMS).Impacts()).To(Equal([]pipeline.Impact{
				{Step: sheet.STEP_RHYTHMS, List: "reprocess rhythm of sheet test", Direction: tasks.DIR_DO},
			}))
			Expect(f.stage(sheet.STEP_LINKS).Impacts()).To(BeEmpty())
		})

		It("names the system", func() {
			res := f.run(f.controller.ReprocessRhythm(f.sys2))
			Expect(res.List.Name()).To(Equal("reprocess rhythm of " + f.sys2.String()))
		})

		It("is ignored before rhythms are processed", func() {
			f.sheet.SetLatestStep(sheet.STEP_LINKS)
			res := f.run(f.controller.ReprocessRhythm(nil))
			Expect(res.Impacted).To(BeEmpty())
		})
	})
})
