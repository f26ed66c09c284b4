package model

import "fmt"

// Node is one relay node as advertised by the lobby server.
type Node struct {
	ID        int32
	Name      string
	Location  string
	CountryID int32
	Ping      int32 // milliseconds, most recently observed
}

// NodeRegistry is the control-plane's single-writer view of known relay
// nodes plus the currently selected one. Snapshot hands out a copy; the
// mutating methods are only ever called from the control-plane dispatch
// goroutine.
type NodeRegistry struct {
	nodes      map[int32]Node
	selectedID *int32
}

// NewNodeRegistry returns an empty registry.
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{nodes: make(map[int32]Node)}
}

// Replace swaps in a freshly received node list. An incoming node whose
// ping is 0 keeps the ping the registry already had for that id; a non-zero
// incoming ping replaces it.
func (r *NodeRegistry) Replace(nodes []Node) {
	next := make(map[int32]Node, len(nodes))
	for _, n := range nodes {
		if prev, ok := r.nodes[n.ID]; ok && n.Ping == 0 {
			n.Ping = prev.Ping
		}
		next[n.ID] = n
	}
	r.nodes = next
}

// Node looks up a node by id.
func (r *NodeRegistry) Node(id int32) (Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// SelectedID returns the currently selected node id, if any.
func (r *NodeRegistry) SelectedID() *int32 {
	if r.selectedID == nil {
		return nil
	}
	id := *r.selectedID
	return &id
}

// Select sets the selected node id. Returns an error if id does not name an
// existing entry — the registry invariant (spec.md §3) forbids a dangling
// selection.
func (r *NodeRegistry) Select(id int32) error {
	if _, ok := r.nodes[id]; !ok {
		return fmt.Errorf("select node %d: not present in registry", id)
	}
	sel := id
	r.selectedID = &sel
	return nil
}

// Clear drops the current selection (no-op if already unselected).
func (r *NodeRegistry) Clear() {
	r.selectedID = nil
}

// Snapshot returns a defensive copy of all known nodes, each annotated with
// its own current ping value (spec.md §8 invariant: every emitted node
// carries the registry's ping for that id at emission time).
func (r *NodeRegistry) Snapshot() []Node {
	out := make([]Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	return out
}
