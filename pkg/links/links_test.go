package links_test

import (
	"image"

	"github.com/mandelsoft/logging"
	. "github.com/mandelsoft/interedit/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/interedit/pkg/links"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
)

var _ = Describe("link search", func() {
	var sys *sheet.System
	var g *sig.Graph
	var searcher *links.Searcher

	add := func(kind sig.Kind, r image.Rectangle) *sig.Entity {
		e := g.NewEntity(kind)
		e.Bounds = r
		e.Staff = 1
		MustBeSuccessful(g.AddEntity(e))
		return e
	}
	ghost := func(kind sig.Kind, r image.Rectangle) *sig.Entity {
		e := g.NewEntity(kind)
		e.Bounds = r
		e.Staff = 1
		return e
	}

	BeforeEach(func() {
		s := sheet.New("test")
		sys = s.AddSystem()
		s.AddStaff(sys, 0, 1000, 100, 140)
		g = sys.Graph()
		searcher = links.New(logging.DefaultContext())
	})

	It("links a head to the adjacent stem", func() {
		stem := add(sig.KIND_STEM, image.Rect(109, 60, 111, 125))
		add(sig.KIND_STEM, image.Rect(300, 60, 302, 125))

		result := searcher.SearchLinks(ghost(sig.KIND_HEAD, image.Rect(100, 120, 110, 130)), sys, true)
		Expect(result).To(HaveLen(1))
		Expect(result[0].Partner).To(Equal(stem.Id))
		Expect(result[0].Outgoing).To(BeTrue())
		Expect(result[0].Relation.Kind).To(BeIdenticalTo(sig.REL_HEAD_STEM))
	})

	It("finds nothing for isolated heads", func() {
		add(sig.KIND_STEM, image.Rect(300, 60, 302, 125))
		Expect(searcher.SearchLinks(ghost(sig.KIND_HEAD, image.Rect(100, 120, 110, 130)), sys, true)).To(BeEmpty())
	})

	It("links a stem to heads, beams and free flags", func() {
		h1 := add(sig.KIND_HEAD, image.Rect(100, 120, 110, 130))
		h2 := add(sig.KIND_HEAD, image.Rect(100, 110, 110, 120))
		beam := add(sig.KIND_BEAM, image.Rect(105, 55, 200, 62))
		flag := add(sig.KIND_FLAG, image.Rect(110, 70, 120, 90))
		other := add(sig.KIND_STEM, image.Rect(400, 60, 402, 125))
		MustBeSuccessful(g.AddRelation(flag.Id, other.Id, sig.NewRelation(sig.REL_FLAG_STEM)))

		stem := ghost(sig.KIND_STEM, image.Rect(109, 60, 111, 125))
		result := searcher.SearchLinks(stem, sys, true)
		Expect(partners(result)).To(ConsistOf(h1.Id, h2.Id, beam.Id))

		result = searcher.SearchLinks(stem, sys, false)
		Expect(partners(result)).To(ConsistOf(h1.Id, h2.Id, beam.Id, flag.Id))
		for _, l := range result {
			Expect(l.Outgoing).To(BeFalse())
		}
	})

	It("links an augmentation dot to the head on its left", func() {
		add(sig.KIND_HEAD, image.Rect(60, 120, 70, 130))
		h := add(sig.KIND_HEAD, image.Rect(100, 120, 110, 130))

		result := searcher.SearchLinks(ghost(sig.KIND_DOT, image.Rect(115, 123, 119, 127)), sys, true)
		Expect(partners(result)).To(ConsistOf(h.Id))
		Expect(result[0].Relation.Kind).To(BeIdenticalTo(sig.REL_AUGMENTATION))
	})

	It("links a slur to the heads at both ends", func() {
		h1 := add(sig.KIND_HEAD, image.Rect(100, 120, 110, 130))
		h2 := add(sig.KIND_HEAD, image.Rect(200, 120, 210, 130))
		add(sig.KIND_HEAD, image.Rect(150, 120, 160, 130))

		result := searcher.SearchLinks(ghost(sig.KIND_SLUR, image.Rect(105, 100, 205, 115)), sys, true)
		Expect(partners(result)).To(ConsistOf(h1.Id, h2.Id))
	})

	It("links a lyric item to the chord above", func() {
		add(sig.KIND_HEAD_CHORD, image.Rect(100, 20, 110, 40))
		c := add(sig.KIND_HEAD_CHORD, image.Rect(100, 110, 110, 130))
		add(sig.KIND_HEAD_CHORD, image.Rect(300, 110, 310, 130))

		result := searcher.SearchLinks(ghost(sig.KIND_LYRIC_ITEM, image.Rect(95, 160, 125, 170)), sys, true)
		Expect(partners(result)).To(ConsistOf(c.Id))
		Expect(result[0].Relation.Kind).To(BeIdenticalTo(sig.REL_CHORD_SYLLABLE))
	})
})

func partners(list []sig.Link) []sig.EntityId {
	var ids []sig.EntityId
	for _, l := range list {
		ids = append(ids, l.Partner)
	}
	return ids
}
