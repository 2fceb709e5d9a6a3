package scenario_test

import (
	"context"

	"github.com/go-test/deep"
	"github.com/mandelsoft/logging"
	. "github.com/mandelsoft/interedit/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/scenario"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
)

const document = `
name: ${NAME}
systems:
- staves:
  - {left: 0, right: 1000, top: 100, bottom: 140}
  - {left: 0, right: 1000, top: 200, bottom: 240}
- staves:
  - {left: 0, right: 1000, top: 400, bottom: 440}
glyphs:
- name: blob
  bounds: [300, 115, 310, 125]
entities:
- name: stem
  kind: stem
  staff: 1
  bounds: [109, 60, 111, 122]
- name: rest
  kind: rest
  staff: 3
  bounds: [200, 410, 210, 430]
prompts:
  confirm: [false]
operations:
- op: add
  entities:
  - name: h1
    kind: head
    staff: 1
    bounds: [400, 115, 410, 125]
- op: undo
- op: redo
- op: remove-selection
  targets: [h1, stem]
  error: operation aborted
- op: remove
  targets: [h1]
- op: undo
- op: split-chord
  target: stem
  error: no head chord
`

var _ = Describe("scenarios", func() {
	ctx := context.Background()
	vars := map[string]string{"NAME": "demo"}

	Context("parsing", func() {
		It("substitutes variables and defaults", func() {
			s := Must(scenario.Parse([]byte(document), vars))
			Expect(s.Name).To(Equal("demo"))
			Expect(s.Latest).To(Equal(sheet.STEP_PAGE))
			Expect(s.Systems).To(HaveLen(2))
			Expect(s.Entities[0].Bounds.Rectangle().Dx()).To(Equal(2))
			Expect(s.Operations).To(HaveLen(7))
			Expect(s.Operations[3].Targets).To(Equal([]string{"h1", "stem"}))
		})

		It("generates a missing name", func() {
			s := Must(scenario.Parse([]byte(document), map[string]string{"NAME": ""}))
			Expect(s.Name).NotTo(BeEmpty())
		})

		It("parses steps by name", func() {
			s := Must(scenario.Parse([]byte("latest: Texts\nsystems:\n- staves: []\n"), nil))
			Expect(s.Latest).To(Equal(sheet.STEP_TEXTS))
		})

		It("loads from a filesystem", func() {
			fs := Must(MemoryFileSystem(map[string]string{"/scenarios/demo.yaml": document}))
			s := Must(scenario.Load(fs, "/scenarios/demo.yaml", vars))
			Expect(s.Glyphs[0].Name).To(Equal("blob"))

			_, err := scenario.Load(fs, "/scenarios/missing.yaml", vars)
			Expect(err).To(HaveOccurred())
		})

		It("replays a scenario from the test data", func() {
			fs := Must(TestFileSystem("testdata", true))
			s := Must(scenario.Load(fs, "testdata/chords.yaml", nil))
			Expect(s.Latest).To(Equal(sheet.STEP_LINKS))
			Expect(*s.Settings.UseStaffProximity).To(BeFalse())
			Expect(s.Settings.UseStaffLink).To(BeNil())

			session := Must(scenario.NewSession(logging.DefaultContext(), s))
			defer session.Close()
			Expect(session.Controller().Config().UseStaffProximity).To(BeFalse())
			Expect(session.Controller().Config().UseStaffLink).To(BeTrue())
			Expect(session.Sheet().StemThickness()).To(Equal(4))

			initial := session.Report().Systems
			MustBeSuccessful(session.Run(ctx))
			report := session.Report()
			Expect(report.Steps[0].Impacted).To(Equal([]sheet.Step{
				sheet.STEP_STEMS, sheet.STEP_TEXTS, sheet.STEP_MEASURES, sheet.STEP_CHORDS,
				sheet.STEP_CURVES, sheet.STEP_SYMBOLS, sheet.STEP_LINKS,
			}))
			Expect(report.Steps[2].Error).To(ContainSubstring("has no system below"))
			Expect(deep.Equal(report.Systems, initial)).To(BeNil())
		})

		DescribeTable("rejects invalid documents",
			func(doc string, msg string) {
				_, err := scenario.Parse([]byte(doc), nil)
				Expect(err).To(MatchError(ContainSubstring(msg)))
			},
			Entry("no systems", "name: x\n", "no systems"),
			Entry("unknown field", "systems:\n- staves: []\nfoo: bar\n", "foo"),
			Entry("unknown staff", "systems:\n- staves: []\nentities:\n- kind: head\n  staff: 1\n  bounds: [0,0,1,1]\n", "unknown staff"),
			Entry("unknown glyph", "systems:\n- staves: [{left: 0, right: 10, top: 0, bottom: 4}]\nentities:\n- kind: head\n  staff: 1\n  glyph: g\n  bounds: [0,0,1,1]\n", "unknown glyph"),
			Entry("relation kind", "systems:\n- staves: []\nrelations:\n- {source: a, kind: friendship, target: b}\n", "unknown kind"),
			Entry("missing op", "systems:\n- staves: []\noperations:\n- target: a\n", "missing op"),
		)
	})

	Context("sessions", func() {
		var session *scenario.Session

		BeforeEach(func() {
			s := Must(scenario.Parse([]byte(document), vars))
			session = Must(scenario.NewSession(logging.DefaultContext(), s))
		})

		AfterEach(func() {
			MustBeSuccessful(session.Close())
		})

		It("builds the sheet", func() {
			sh := session.Sheet()
			Expect(sh.Name()).To(Equal("demo"))
			Expect(sh.Systems()).To(HaveLen(2))
			Expect(sh.Staves()).To(HaveLen(3))
			Expect(sh.LatestStep()).To(Equal(sheet.STEP_PAGE))

			stem := Must(session.Entity("stem"))
			Expect(stem.Kind).To(Equal(sig.KIND_STEM))
			Expect(sh.System(1).Graph().Contains(stem.Id)).To(BeTrue())
			rest := Must(session.Entity("rest"))
			Expect(sh.System(2).Graph().Contains(rest.Id)).To(BeTrue())

			Expect(Must(session.Entity(stem.String()))).To(BeIdenticalTo(stem))
			_, err := session.Entity("nothing")
			MustFailWith(err, sig.ErrUnknownEntity)
			_, err = session.Entity("head" + stem.String()[len("stem"):])
			MustFailWith(err, sig.ErrUnknownEntity)
		})

		It("runs all operations", func() {
			initial := session.Report().Systems

			MustBeSuccessful(session.Run(ctx))
			report := session.Report()
			Expect(report.Name).To(Equal("demo"))
			Expect(report.Modified).To(BeTrue())
			Expect(report.History).To(Equal(scenario.HistoryReport{Length: 2, Cursor: 1}))
			Expect(report.Questions).To(Equal([]string{"Do you confirm this multiple deletion?"}))

			steps := report.Steps
			Expect(steps).To(HaveLen(7))
			Expect(steps[0].Operation).To(Equal("do add"))
			Expect(steps[0].List).To(Equal("add entities"))
			Expect(steps[0].Selection).To(ContainElement("h1"))
			Expect(steps[0].Impacted).To(ContainElements(sheet.STEP_HEADS, sheet.STEP_CHORDS))
			Expect(steps[1].Operation).To(Equal("undo undo"))
			Expect(steps[3].Error).To(ContainSubstring("operation aborted"))
			Expect(steps[4].Tasks).To(Equal(2))
			Expect(steps[6].Error).To(ContainSubstring("no head chord"))

			h1 := Must(session.Entity("h1"))
			g := session.Sheet().System(1).Graph()
			Expect(g.Contains(h1.Id)).To(BeTrue())
			Expect(g.Chord(h1.Id)).NotTo(BeNil())

			Expect(report.Impacts).NotTo(BeEmpty())
			Expect(deep.Equal(report.Systems[1], initial[1])).To(BeNil())
		})

		It("restores the initial content by undo", func() {
			initial := session.Report().Systems
			Must(session.Apply(ctx, scenario.Operation{
				Op: scenario.OP_ADD,
				Entities: []scenario.Entity{
					{Name: "h2", Kind: sig.KIND_HEAD, Staff: 1, Bounds: scenario.Box{400, 115, 410, 125}},
				},
			}))
			Expect(deep.Equal(session.Report().Systems, initial)).NotTo(BeNil())
			Must(session.Apply(ctx, scenario.Operation{Op: scenario.OP_UNDO}))
			Expect(deep.Equal(session.Report().Systems, initial)).To(BeNil())
		})

		It("reports unexpected outcomes", func() {
			_, err := session.Apply(ctx, scenario.Operation{Op: scenario.OP_UNDO})
			MustFailWith(err, edit.ErrNothingToUndo)

			_, err = session.Apply(ctx, scenario.Operation{Op: scenario.OP_REDO, Error: "nothing to undo"})
			Expect(err).To(MatchError(ContainSubstring(`expected error "nothing to undo"`)))

			_, err = session.Apply(ctx, scenario.Operation{Op: scenario.OP_REPROCESS_RHYTHM, Error: "failure"})
			Expect(err).To(MatchError(`expected error "failure"`))

			_, err = session.Apply(ctx, scenario.Operation{Op: "rotate"})
			Expect(err).To(MatchError(ContainSubstring("unknown operation")))
		})

		It("links and unlinks named entities", func() {
			Must(session.Apply(ctx, scenario.Operation{
				Op: scenario.OP_ADD,
				Entities: []scenario.Entity{
					{Name: "f1", Kind: sig.KIND_FLAG, Staff: 1, Bounds: scenario.Box{400, 60, 410, 80}},
				},
			}))
			step := Must(session.Apply(ctx, scenario.Operation{Op: scenario.OP_LINK, Source: "f1", Kind: "flag-stem", Target: "stem"}))
			Expect(step.Operation).To(Equal("do link stem"))
			Expect(step.List).To(Equal("link flag-stem"))

			f1 := Must(session.Entity("f1"))
			stem := Must(session.Entity("stem"))
			g := session.Sheet().System(1).Graph()
			Expect(g.RelationBetween(f1.Id, stem.Id, sig.REL_FLAG_STEM)).NotTo(BeNil())

			Must(session.Apply(ctx, scenario.Operation{Op: scenario.OP_UNLINK, Source: "f1", Kind: "flag-stem", Target: "stem"}))
			Expect(g.RelationBetween(f1.Id, stem.Id, sig.REL_FLAG_STEM)).To(BeNil())

			_, err := session.Apply(ctx, scenario.Operation{Op: scenario.OP_UNLINK, Source: "f1", Kind: "flag-stem", Target: "stem"})
			MustFailWith(err, sig.ErrUnknownRelation)
		})

		It("does not register names of failed additions", func() {
			_, err := session.Apply(ctx, scenario.Operation{
				Op:       scenario.OP_ADD,
				Entities: []scenario.Entity{{Name: "h3", Kind: sig.KIND_HEAD, Staff: 0, Bounds: scenario.Box{100, 115, 110, 125}}},
				Error:    "no staff",
			})
			MustBeSuccessful(err)
			_, err = session.Entity("h3")
			MustFailWith(err, sig.ErrUnknownEntity)
		})
	})
})
