package sig

import (
	"cmp"
	"image"
	"maps"
	"slices"

	"github.com/mandelsoft/interedit/pkg/utils"
)

// EntityContent is the structural content of an interpretation.
type EntityContent struct {
	Id         EntityId          `json:"id"`
	Kind       Kind              `json:"kind"`
	Bounds     image.Rectangle   `json:"bounds"`
	Staff      StaffId           `json:"staff,omitempty"`
	Glyph      GlyphId           `json:"glyph,omitempty"`
	Manual     bool              `json:"manual,omitempty"`
	Area       *image.Rectangle  `json:"area,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// RelationContent is the structural content of a relation.
type RelationContent struct {
	Id     RelationId `json:"id"`
	Kind   string     `json:"kind"`
	Source EntityId   `json:"source"`
	Target EntityId   `json:"target"`
}

// Content is an order independent view of the structural content of a
// graph. Two graphs with equal content are considered identical.
type Content struct {
	Entities  []EntityContent   `json:"entities"`
	Relations []RelationContent `json:"relations"`
}

func (g *Graph) Content() Content {
	c := Content{
		Entities:  []EntityContent{},
		Relations: []RelationContent{},
	}
	for _, e := range g.Entities() {
		var area *image.Rectangle
		if e.Area != nil {
			area = utils.Pointer(*e.Area)
		}
		c.Entities = append(c.Entities, EntityContent{
			Id:         e.Id,
			Kind:       e.Kind,
			Bounds:     e.Bounds,
			Staff:      e.Staff,
			Glyph:      e.Glyph,
			Manual:     e.Manual,
			Area:       area,
			Attributes: maps.Clone(e.Attributes),
		})
	}
	for _, r := range g.relations {
		c.Relations = append(c.Relations, RelationContent{
			Id:     r.Id,
			Kind:   r.Kind.Name,
			Source: r.Source,
			Target: r.Target,
		})
	}
	slices.SortFunc(c.Relations, func(a, b RelationContent) int { return cmp.Compare(a.Id, b.Id) })
	return c
}

// Digest returns a hash of the structural content of the graph.
func (g *Graph) Digest() string {
	d, err := utils.HashData(g.Content())
	if err != nil {
		// content only consists of plain data
		panic(err)
	}
	return d
}
