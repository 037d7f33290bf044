// Package scene is the retained entity registry the editor manipulates.
// Entities are opaque handles; each carries a small fixed set of optional
// components.
package scene

import (
	"sort"

	"github.com/glyphedit/glyphedit/internal/geom"
	"github.com/glyphedit/glyphedit/internal/outline"
)

// Entity is an opaque handle. The zero value never refers to a live entity.
type Entity uint64

const None Entity = 0

// Render depths for live transforms.
const (
	DepthPoint  = 5.0
	DepthHandle = 10.0
	DepthGuide  = 15.0
)

// Transform is the live on-screen placement of an entity.
type Transform struct {
	Position geom.Vec2 `json:"position"`
	Z        float64   `json:"z"`
}

// PointKind classifies an outline point.
type PointKind struct {
	OnCurve bool `json:"onCurve"`
}

// MarqueeRect is the visualization component of a rubber-band selection.
type MarqueeRect struct {
	Start geom.Vec2 `json:"start"`
	End   geom.Vec2 `json:"end"`
}

// Node holds the components of one entity. A nil component is absent.
type Node struct {
	ID         Entity
	Transform  Transform
	Selectable bool
	Kind       *PointKind
	Ref        *outline.PointRef
	Marquee    *MarqueeRect

	selected bool
}

// Ephemeral reports whether the node is an interaction handle with no
// outline point behind it.
func (n *Node) Ephemeral() bool { return n.Ref == nil }

// OnCurve reports whether the node is an on-curve outline point.
func (n *Node) OnCurve() bool { return n.Kind != nil && n.Kind.OnCurve }

// World owns every live entity.
type World struct {
	nodes map[Entity]*Node
	next  Entity
}

func NewWorld() *World {
	return &World{nodes: make(map[Entity]*Node)}
}

// Spawn registers a node and returns its new handle. Any ID already set on
// the node is overwritten.
func (w *World) Spawn(n Node) Entity {
	w.next++
	n.ID = w.next
	n.selected = false
	w.nodes[n.ID] = &n
	return n.ID
}

// Despawn removes an entity. Unknown handles are ignored.
func (w *World) Despawn(e Entity) {
	delete(w.nodes, e)
}

// Clear despawns every entity. Handles are never reused.
func (w *World) Clear() {
	w.nodes = make(map[Entity]*Node)
}

func (w *World) Alive(e Entity) bool {
	_, ok := w.nodes[e]
	return ok
}

// Get returns the node for a live entity.
func (w *World) Get(e Entity) (*Node, bool) {
	n, ok := w.nodes[e]
	return n, ok
}

func (w *World) Len() int { return len(w.nodes) }

// Position returns the live position of an entity.
func (w *World) Position(e Entity) (geom.Vec2, bool) {
	n, ok := w.nodes[e]
	if !ok {
		return geom.Vec2{}, false
	}
	return n.Transform.Position, true
}

// SetTransform moves an entity. It reports false for stale handles.
func (w *World) SetTransform(e Entity, pos geom.Vec2, z float64) bool {
	n, ok := w.nodes[e]
	if !ok {
		return false
	}
	n.Transform = Transform{Position: pos, Z: z}
	return true
}

// SetPosition moves an entity keeping its depth.
func (w *World) SetPosition(e Entity, pos geom.Vec2) bool {
	n, ok := w.nodes[e]
	if !ok {
		return false
	}
	n.Transform.Position = pos
	return true
}

// IsSelected reports whether e carries the selected tag.
func (w *World) IsSelected(e Entity) bool {
	n, ok := w.nodes[e]
	return ok && n.selected
}

// MarkSelected sets or clears the selected tag. Only selection
// reconciliation should call this.
func (w *World) MarkSelected(e Entity, selected bool) {
	if n, ok := w.nodes[e]; ok {
		n.selected = selected
	}
}

// Query returns the handles of every node matching pred in ascending order.
// A nil pred matches everything.
func (w *World) Query(pred func(*Node) bool) []Entity {
	out := make([]Entity, 0, len(w.nodes))
	for id, n := range w.nodes {
		if pred == nil || pred(n) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Selectables returns every selectable entity.
func (w *World) Selectables() []Entity {
	return w.Query(func(n *Node) bool { return n.Selectable })
}

// Tagged returns every entity carrying the selected tag.
func (w *World) Tagged() []Entity {
	return w.Query(func(n *Node) bool { return n.selected })
}

// FindRef returns the entity materialized for ref.
func (w *World) FindRef(ref outline.PointRef) (Entity, bool) {
	for id, n := range w.nodes {
		if n.Ref != nil && *n.Ref == ref {
			return id, true
		}
	}
	return None, false
}
