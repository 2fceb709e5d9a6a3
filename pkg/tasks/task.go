// Package tasks provides the reversible edit primitives applied to a
// symbol interpretation graph, their grouping into task lists and the
// undo/redo history.
package tasks

import (
	"fmt"

	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
)

// Task is the closed set of atomic edits. The concrete variants are
// Addition, Removal, Link, Unlink, AttributeChange, Marker and
// RegionMerge. Use Apply and Revert to execute them.
type Task interface {
	fmt.Stringer
	// Scopes returns the kinds touched by the task, used to determine
	// the impacted processing steps.
	Scopes() []string
	// Entities returns the interpretations involved in the task.
	Entities() []*sig.Entity

	task()
}

const (
	SCOPE_SYSTEM_MERGE = "system-merge"
	SCOPE_RHYTHM       = "rhythm"
)

// Addition inserts an interpretation together with its links.
type Addition struct {
	Graph  *sig.Graph
	Entity *sig.Entity
	Links  []sig.Link
}

var _ Task = (*Addition)(nil)

func NewAddition(g *sig.Graph, e *sig.Entity, links ...sig.Link) *Addition {
	return &Addition{Graph: g, Entity: e, Links: links}
}

func (t *Addition) task() {}

func (t *Addition) String() string {
	return fmt.Sprintf("addition %s", t.Entity)
}

func (t *Addition) Scopes() []string {
	scopes := []string{string(t.Entity.Kind)}
	for _, l := range t.Links {
		scopes = append(scopes, l.Relation.Kind.Name)
	}
	return scopes
}

func (t *Addition) Entities() []*sig.Entity {
	return []*sig.Entity{t.Entity}
}

// Removal deletes an interpretation. The incident relations are
// captured when the task is applied and restored on revert.
type Removal struct {
	Graph  *sig.Graph
	Entity *sig.Entity

	captured []*sig.Relation
}

var _ Task = (*Removal)(nil)

func NewRemoval(g *sig.Graph, e *sig.Entity) *Removal {
	return &Removal{Graph: g, Entity: e}
}

func (t *Removal) task() {}

func (t *Removal) String() string {
	return fmt.Sprintf("removal %s", t.Entity)
}

func (t *Removal) Scopes() []string {
	scopes := []string{string(t.Entity.Kind)}
	for _, r := range t.captured {
		scopes = append(scopes, r.Kind.Name)
	}
	return scopes
}

func (t *Removal) Entities() []*sig.Entity {
	return []*sig.Entity{t.Entity}
}

// Captured returns the relations detached by the last application.
func (t *Removal) Captured() []*sig.Relation {
	return t.captured
}

// Link inserts a relation between two interpretations.
type Link struct {
	Graph    *sig.Graph
	Source   sig.EntityId
	Target   sig.EntityId
	Relation *sig.Relation
}

var _ Task = (*Link)(nil)

func NewLink(g *sig.Graph, src, tgt sig.EntityId, r *sig.Relation) *Link {
	return &Link{Graph: g, Source: src, Target: tgt, Relation: r}
}

func (t *Link) task() {}

func (t *Link) String() string {
	return fmt.Sprintf("link %s %d->%d", t.Relation.Kind, t.Source, t.Target)
}

func (t *Link) Scopes() []string {
	return []string{t.Relation.Kind.Name}
}

func (t *Link) Entities() []*sig.Entity {
	return endpoints(t.Graph, t.Source, t.Target)
}

// Unlink removes a relation.
type Unlink struct {
	Graph    *sig.Graph
	Relation *sig.Relation
}

var _ Task = (*Unlink)(nil)

func NewUnlink(g *sig.Graph, r *sig.Relation) *Unlink {
	return &Unlink{Graph: g, Relation: r}
}

func (t *Unlink) task() {}

func (t *Unlink) String() string {
	return fmt.Sprintf("unlink %s", t.Relation)
}

func (t *Unlink) Scopes() []string {
	return []string{t.Relation.Kind.Name}
}

func (t *Unlink) Entities() []*sig.Entity {
	return endpoints(t.Graph, t.Relation.Source, t.Relation.Target)
}

// AttributeChange sets an attribute of an interpretation. The previous
// value is kept to support both directions.
type AttributeChange struct {
	Graph  *sig.Graph
	Entity *sig.Entity
	Name   string
	Value  string

	old string
}

var _ Task = (*AttributeChange)(nil)

func NewAttributeChange(g *sig.Graph, e *sig.Entity, name, value string) *AttributeChange {
	return &AttributeChange{Graph: g, Entity: e, Name: name, Value: value}
}

func (t *AttributeChange) task() {}

func (t *AttributeChange) String() string {
	return fmt.Sprintf("change %s.%s=%q", t.Entity, t.Name, t.Value)
}

func (t *AttributeChange) Scopes() []string {
	return []string{string(t.Entity.Kind)}
}

func (t *AttributeChange) Entities() []*sig.Entity {
	return []*sig.Entity{t.Entity}
}

func (t *AttributeChange) OldValue() string {
	return t.old
}

// Marker has no effect on the graph. It only requests a processing
// step to be rerun for some scope.
type Marker struct {
	Scope string
	Step  sheet.Step
}

var _ Task = (*Marker)(nil)

func NewMarker(scope string, step sheet.Step) *Marker {
	return &Marker{Scope: scope, Step: step}
}

func (t *Marker) task() {}

func (t *Marker) String() string {
	return fmt.Sprintf("marker %s(%s)", t.Scope, t.Step)
}

func (t *Marker) Scopes() []string {
	return []string{t.Scope}
}

func (t *Marker) Entities() []*sig.Entity {
	return nil
}

// RegionMerge merges a system with the system below it.
type RegionMerge struct {
	Sheet *sheet.Sheet
	Upper *sheet.System

	record *sheet.MergeRecord
}

var _ Task = (*RegionMerge)(nil)

func NewRegionMerge(s *sheet.Sheet, upper *sheet.System) *RegionMerge {
	return &RegionMerge{Sheet: s, Upper: upper}
}

func (t *RegionMerge) task() {}

func (t *RegionMerge) String() string {
	return fmt.Sprintf("merge %s", t.Upper)
}

func (t *RegionMerge) Scopes() []string {
	return []string{SCOPE_SYSTEM_MERGE}
}

func (t *RegionMerge) Entities() []*sig.Entity {
	return nil
}

// Lower returns the merged lower system once the task has been applied.
func (t *RegionMerge) Lower() *sheet.System {
	if t.record == nil {
		return nil
	}
	return t.record.Lower
}

func endpoints(g *sig.Graph, ids ...sig.EntityId) []*sig.Entity {
	var list []*sig.Entity
	for _, id := range ids {
		if e := g.Entity(id); e != nil {
			list = append(list, e)
		}
	}
	return list
}
