package edit_test

import (
	"image"

	"github.com/mandelsoft/logging"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/sig"
)

var _ = Describe("glyph assignment", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture()
	})

	AfterEach(func() {
		f.Close()
	})

	assigned := func(glyph sig.GlyphId) *sig.Entity {
		for _, sys := range f.sheet.Systems() {
			for _, e := range sys.Graph().Entities() {
				if e.Glyph == glyph && e.Kind == sig.KIND_HEAD {
					return e
				}
			}
		}
		return nil
	}

	It("uses the containing staff", func() {
		gl := f.sheet.RegisterGlyph(image.Rect(100, 115, 110, 125))
		f.run(f.controller.AssignGlyph(gl, sig.KIND_HEAD))

		head := assigned(gl.Id)
		Expect(head).NotTo(BeNil())
		Expect(head.Staff).To(Equal(sig.StaffId(1)))
		Expect(head.Manual).To(BeTrue())
		Expect(head.Bounds).To(Equal(gl.Bounds))
		Expect(f.graph(1).Chord(head.Id)).NotTo(BeNil())
		Expect(f.prompter.Questions()).To(BeEmpty())
	})

	It("uses the close staff", func() {
		gl := f.sheet.RegisterGlyph(image.Rect(100, 145, 110, 155))
		f.run(f.controller.AssignGlyph(gl, sig.KIND_HEAD))
		Expect(assigned(gl.Id).Staff).To(Equal(sig.StaffId(1)))
		Expect(f.prompter.Questions()).To(BeEmpty())
	})

	It("uses the staff of a linked interpretation", func() {
		f.add(sig.KIND_STEM, 2, image.Rect(109, 165, 111, 230))
		gl := f.sheet.RegisterGlyph(image.Rect(100, 165, 110, 175))
		f.run(f.controller.AssignGlyph(gl, sig.KIND_HEAD))
		Expect(assigned(gl.Id).Staff).To(Equal(sig.StaffId(2)))
		Expect(f.prompter.Questions()).To(BeEmpty())
	})

	Context("in the middle of the gutter", func() {
		var gl = image.Rect(100, 165, 110, 175)

		It("prompts for the staff", func() {
			f.prompter.staff = 1
			glyph := f.sheet.RegisterGlyph(gl)
			f.run(f.controller.AssignGlyph(glyph, sig.KIND_HEAD))
			Expect(assigned(glyph.Id).Staff).To(Equal(sig.StaffId(2)))
			Expect(f.prompter.Questions()).To(Equal([]string{"staff"}))
		})

		It("aborts without choice", func() {
			f.prompter.staff = -1
			initial := f.digest()
			err := f.fail(f.controller.AssignGlyph(f.sheet.RegisterGlyph(gl), sig.KIND_HEAD))
			Expect(err).To(MatchError(edit.ErrAborted))
			Expect(f.digest()).To(Equal(initial))
			Expect(f.controller.CanUndo()).To(BeFalse())
		})

		It("aborts in headless mode", func() {
			c := edit.New(logging.DefaultContext(), f.sheet, f.stages)
			defer c.Close()
			err := f.fail(c.AssignGlyph(f.sheet.RegisterGlyph(gl), sig.KIND_HEAD))
			Expect(err).To(MatchError(edit.ErrAborted))
		})

		It("prompts without staff heuristics", func() {
			cfg := edit.DefaultConfig()
			cfg.UseStaffLink = false
			cfg.UseStaffProximity = false
			c := edit.New(logging.DefaultContext(), f.sheet, f.stages, edit.WithConfig(cfg), edit.WithPrompter(f.prompter))
			defer c.Close()

			f.prompter.staff = 0
			glyph := f.sheet.RegisterGlyph(image.Rect(100, 145, 110, 155))
			f.run(c.AssignGlyph(glyph, sig.KIND_HEAD))
			Expect(assigned(glyph.Id).Staff).To(Equal(sig.StaffId(1)))
			Expect(f.prompter.Questions()).To(Equal([]string{"staff"}))
		})
	})

	It("fits barlines to the staff height", func() {
		gl := f.sheet.RegisterGlyph(image.Rect(500, 90, 503, 150))
		res := f.run(f.controller.AssignGlyph(gl, sig.KIND_BARLINE))
		bar := res.List.Entities()[0]
		Expect(bar.Kind).To(Equal(sig.KIND_BARLINE))
		Expect(bar.Staff).To(Equal(sig.StaffId(1)))
		Expect(bar.Bounds).To(Equal(image.Rect(500, 100, 503, 141)))
		Expect(bar.Glyph).To(Equal(sig.GlyphId(0)))
	})

	It("delegates text kinds", func() {
		err := f.fail(f.controller.AssignGlyph(f.sheet.RegisterGlyph(image.Rect(100, 60, 300, 90)), sig.KIND_TEXT))
		Expect(err).To(MatchError(edit.ErrUnavailable))
	})
})
