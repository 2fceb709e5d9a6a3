package edit_test

import (
	"image"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/sig"
)

var _ = Describe("linking", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture()
	})

	AfterEach(func() {
		f.Close()
	})

	It("replaces the relation of a single target kind", func() {
		s1 := f.add(sig.KIND_STEM, 1, image.Rect(109, 60, 111, 122))
		s2 := f.add(sig.KIND_STEM, 1, image.Rect(209, 60, 211, 122))
		flag := f.add(sig.KIND_FLAG, 1, image.Rect(111, 60, 120, 80))
		old := f.relate(flag, sig.REL_FLAG_STEM, s1)

		f.run(f.controller.Link(f.sys1, flag, s2, sig.NewRelation(sig.REL_FLAG_STEM)))
		g := f.graph(1)
		Expect(g.Relation(old.Id)).To(BeNil())
		rels := g.Outgoing(flag.Id, sig.REL_FLAG_STEM)
		Expect(rels).To(HaveLen(1))
		Expect(rels[0].Target).To(Equal(s2.Id))

		f.run(f.controller.Undo())
		Expect(g.Outgoing(flag.Id, sig.REL_FLAG_STEM)).To(Equal([]*sig.Relation{old}))
	})

	It("replaces the relation of a single source kind", func() {
		d1 := f.add(sig.KIND_DOT, 1, image.Rect(115, 118, 118, 121))
		d2 := f.add(sig.KIND_DOT, 1, image.Rect(125, 118, 128, 121))
		head := f.add(sig.KIND_HEAD, 1, image.Rect(100, 115, 110, 125))
		f.relate(d1, sig.REL_AUGMENTATION, head)

		f.run(f.controller.Link(f.sys1, d2, head, sig.NewRelation(sig.REL_AUGMENTATION)))
		g := f.graph(1)
		rels := g.Incoming(head.Id, sig.REL_AUGMENTATION)
		Expect(rels).To(HaveLen(1))
		Expect(rels[0].Source).To(Equal(d2.Id))
	})

	It("keeps the augmentation of a mirrored head", func() {
		head := f.add(sig.KIND_HEAD, 1, image.Rect(100, 115, 110, 125))
		mirror := f.add(sig.KIND_HEAD, 1, image.Rect(100, 115, 110, 125))
		f.relate(head, sig.REL_MIRROR, mirror)
		dot := f.add(sig.KIND_DOT, 1, image.Rect(115, 118, 118, 121))
		f.relate(dot, sig.REL_AUGMENTATION, mirror)

		f.run(f.controller.Link(f.sys1, dot, head, sig.NewRelation(sig.REL_AUGMENTATION)))
		g := f.graph(1)
		Expect(g.Outgoing(dot.Id, sig.REL_AUGMENTATION)).To(HaveLen(2))
	})

	It("replaces the slur relation on the same side", func() {
		slur := f.add(sig.KIND_SLUR, 1, image.Rect(100, 90, 300, 100))
		left := f.add(sig.KIND_HEAD, 1, image.Rect(90, 100, 100, 110))
		right := f.add(sig.KIND_HEAD, 1, image.Rect(300, 100, 310, 110))
		other := f.add(sig.KIND_HEAD, 1, image.Rect(80, 100, 90, 110))
		f.relate(slur, sig.REL_SLUR_HEAD, left)
		f.relate(slur, sig.REL_SLUR_HEAD, right)

		f.run(f.controller.Link(f.sys1, slur, other, sig.NewRelation(sig.REL_SLUR_HEAD)))
		g := f.graph(1)
		Expect(g.RelationBetween(slur.Id, left.Id, sig.REL_SLUR_HEAD)).To(BeNil())
		Expect(g.RelationBetween(slur.Id, right.Id, sig.REL_SLUR_HEAD)).NotTo(BeNil())
		Expect(g.RelationBetween(slur.Id, other.Id, sig.REL_SLUR_HEAD)).NotTo(BeNil())
	})

	It("ignores existing relations", func() {
		stem := f.add(sig.KIND_STEM, 1, image.Rect(109, 60, 111, 122))
		flag := f.add(sig.KIND_FLAG, 1, image.Rect(111, 60, 120, 80))
		f.relate(flag, sig.REL_FLAG_STEM, stem)

		res := f.run(f.controller.Link(f.sys1, flag, stem, sig.NewRelation(sig.REL_FLAG_STEM)))
		Expect(res.List.IsEmpty()).To(BeTrue())
		Expect(f.controller.CanUndo()).To(BeFalse())
	})

	It("rejects head-stem relations of other kinds", func() {
		stem := f.add(sig.KIND_STEM, 1, image.Rect(109, 60, 111, 122))
		flag := f.add(sig.KIND_FLAG, 1, image.Rect(111, 60, 120, 80))
		err := f.fail(f.controller.Link(f.sys1, flag, stem, sig.NewRelation(sig.REL_HEAD_STEM)))
		Expect(err).To(MatchError(edit.ErrInvalidRequest))
	})

	It("rejects interpretations of other systems", func() {
		stem := f.add(sig.KIND_STEM, 3, image.Rect(109, 400, 111, 440))
		flag := f.add(sig.KIND_FLAG, 1, image.Rect(111, 60, 120, 80))
		err := f.fail(f.controller.Link(f.sys1, flag, stem, sig.NewRelation(sig.REL_FLAG_STEM)))
		Expect(err).To(MatchError(sig.ErrUnknownEntity))
	})

	Context("heads of chords", func() {
		var head, chord *sig.Entity

		BeforeEach(func() {
			head = f.add(sig.KIND_HEAD, 1, image.Rect(100, 115, 110, 125))
			chord = f.add(sig.KIND_HEAD_CHORD, 1, head.Bounds)
			f.relate(chord, sig.REL_CONTAINMENT, head)
		})

		It("moves the head into the chord of the stem", func() {
			stem := f.add(sig.KIND_STEM, 1, image.Rect(109, 60, 111, 122))
			stemChord := f.add(sig.KIND_HEAD_CHORD, 1, image.Rect(100, 60, 111, 105))
			f.relate(stemChord, sig.REL_CHORD_STEM, stem)
			initial := f.digest()

			f.run(f.controller.Link(f.sys1, head, stem, sig.NewRelation(sig.REL_HEAD_STEM)))
			g := f.graph(1)
			Expect(g.Contains(chord.Id)).To(BeFalse())
			Expect(g.Chord(head.Id)).To(BeIdenticalTo(stemChord))
			Expect(g.RelationBetween(head.Id, stem.Id, sig.REL_HEAD_STEM)).NotTo(BeNil())

			f.run(f.controller.Undo())
			Expect(f.digest()).To(Equal(initial))
			Expect(g.Chord(head.Id)).To(BeIdenticalTo(chord))
		})

		It("creates a chord for a stem without chord", func() {
			other := f.add(sig.KIND_STEM, 1, image.Rect(99, 118, 101, 180))
			f.relate(chord, sig.REL_CHORD_STEM, other)
			f.relate(head, sig.REL_HEAD_STEM, other)
			second := f.add(sig.KIND_HEAD, 1, image.Rect(100, 135, 110, 145))
			f.relate(chord, sig.REL_CONTAINMENT, second)
			stem := f.add(sig.KIND_STEM, 1, image.Rect(109, 125, 111, 180))

			f.run(f.controller.Link(f.sys1, head, stem, sig.NewRelation(sig.REL_HEAD_STEM)))
			g := f.graph(1)
			Expect(g.Contains(chord.Id)).To(BeTrue())
			Expect(g.Members(chord.Id)).To(Equal([]*sig.Entity{second}))
			chords := g.StemChords(stem.Id)
			Expect(chords).To(HaveLen(1))
			Expect(g.Members(chords[0].Id)).To(Equal([]*sig.Entity{head}))
		})

		It("mirrors a head shared by a down and an up stem", func() {
			down := f.add(sig.KIND_STEM, 1, image.Rect(99, 118, 101, 180))
			f.relate(chord, sig.REL_CHORD_STEM, down)
			f.relate(head, sig.REL_HEAD_STEM, down)
			up := f.add(sig.KIND_STEM, 1, image.Rect(109, 60, 111, 122))
			initial := f.digest()

			f.run(f.controller.Link(f.sys1, head, up, sig.NewRelation(sig.REL_HEAD_STEM)))
			g := f.graph(1)
			mirror := g.Mirror(head.Id)
			Expect(mirror).NotTo(BeNil())
			Expect(mirror.Kind).To(Equal(sig.KIND_HEAD))
			Expect(mirror.Bounds).To(Equal(head.Bounds))
			Expect(mirror.Manual).To(BeTrue())

			Expect(g.Chord(head.Id)).To(BeIdenticalTo(chord))
			Expect(g.RelationBetween(head.Id, up.Id, sig.REL_HEAD_STEM)).To(BeNil())
			Expect(g.RelationBetween(mirror.Id, up.Id, sig.REL_HEAD_STEM)).NotTo(BeNil())

			chords := g.StemChords(up.Id)
			Expect(chords).To(HaveLen(1))
			Expect(g.Members(chords[0].Id)).To(Equal([]*sig.Entity{mirror}))

			f.run(f.controller.Undo())
			Expect(f.digest()).To(Equal(initial))
		})
	})

	Context("unlinking", func() {
		It("removes a relation", func() {
			stem := f.add(sig.KIND_STEM, 1, image.Rect(109, 60, 111, 122))
			flag := f.add(sig.KIND_FLAG, 1, image.Rect(111, 60, 120, 80))
			r := f.relate(flag, sig.REL_FLAG_STEM, stem)

			f.run(f.controller.Unlink(f.sys1, r))
			Expect(f.graph(1).Relation(r.Id)).To(BeNil())
			f.run(f.controller.Undo())
			Expect(f.graph(1).Relation(r.Id)).To(BeIdenticalTo(r))
		})

		It("rejects unknown relations", func() {
			err := f.fail(f.controller.Unlink(f.sys1, sig.NewRelation(sig.REL_FLAG_STEM)))
			Expect(err).To(MatchError(sig.ErrUnknownRelation))
		})
	})
})
