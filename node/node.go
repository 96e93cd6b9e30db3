// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package node implements the scene's graph.
package node

import (
	"math"

	"github.com/gviegas/sceneview/linear"
)

// Interface of a node.
type Interface interface {
	// Local returns the local transform of the node.
	// It must not return nil.
	Local() *linear.M4

	// Changed returns whether the local transform
	// has changed since the last call to Local.
	Changed() bool
}

// Node identifies a node in a Graph.
// Node values are stable for the lifetime of the
// node they identify and are compared by value, so
// two nodes holding equal data are still distinct.
// A Node is never reused: once its node is removed,
// it is not valid again even if the storage is.
type Node int

// Nil represents an invalid Node.
const Nil Node = 0

// A Node holds its storage slot plus one in the low
// slotBits bits and the slot's generation above them.
const (
	slotBits = 24
	slotMask = 1<<slotBits - 1
	maxGen   = math.MaxInt >> slotBits
)

func makeNode(slot, gen int) Node { return Node(gen<<slotBits | (slot + 1)) }

// slot returns the storage index of n.
func (n Node) slot() int { return int(n)&slotMask - 1 }

// gen returns the generation of n.
func (n Node) gen() int { return int(n) >> slotBits }

type node struct {
	// Incremented when the node is removed.
	gen    int
	next   Node
	prev   Node
	sub    Node
	parent Node
	local  Interface
	world  linear.M4
}

// Graph is a node graph.
// The zero value is an empty graph ready for use.
type Graph struct {
	nodes []node
	slots slots
	// First root node.
	root Node
	// Global transform applied to root nodes.
	world   linear.M4
	changed bool
}

// index returns the nodes index of n.
// It panics if n is not a valid node of g.
func (g *Graph) index(n Node) int {
	i := n.slot()
	if !g.Valid(n) {
		panic("node: invalid Node")
	}
	return i
}

// Insert inserts a new node as descendant of prev.
// If prev is Nil, the node is inserted as a root.
// The new node is placed before prev's current
// descendants.
// local must not be nil.
func (g *Graph) Insert(local Interface, prev Node) Node {
	if local == nil {
		panic("node: nil Interface in call to Insert")
	}
	idx := g.slots.alloc()
	if idx >= slotMask {
		panic("node: too many nodes")
	}
	if n := g.slots.cap(); n > len(g.nodes) {
		g.nodes = append(g.nodes, make([]node, n-len(g.nodes))...)
	}
	gen := g.nodes[idx].gen
	n := makeNode(idx, gen)
	nd := node{gen: gen, local: local, parent: prev}
	nd.world.I()
	if prev == Nil {
		nd.next = g.root
		if g.root != Nil {
			g.nodes[g.index(g.root)].prev = n
		}
		g.root = n
	} else {
		p := &g.nodes[g.index(prev)]
		nd.next = p.sub
		if p.sub != Nil {
			g.nodes[g.index(p.sub)].prev = n
		}
		p.sub = n
	}
	g.nodes[idx] = nd
	g.changed = true
	return n
}

// Remove removes a node and all of its descendants.
// It returns the Interface of the removed node.
func (g *Graph) Remove(n Node) Interface {
	i := g.index(n)
	nd := &g.nodes[i]
	local := nd.local
	switch {
	case nd.prev != Nil:
		g.nodes[g.index(nd.prev)].next = nd.next
	case nd.parent != Nil:
		g.nodes[g.index(nd.parent)].sub = nd.next
	default:
		g.root = nd.next
	}
	if nd.next != Nil {
		g.nodes[g.index(nd.next)].prev = nd.prev
	}
	var rm []Node
	g.ForEach(n, func(d Node) { rm = append(rm, d) })
	rm = append(rm, n)
	for _, d := range rm {
		j := d.slot()
		g.nodes[j] = node{gen: (g.nodes[j].gen + 1) & maxGen}
		g.slots.free(j)
	}
	return local
}

// Get returns the Interface of n.
func (g *Graph) Get(n Node) Interface { return g.nodes[g.index(n)].local }

// Parent returns the immediate ancestor of n.
// It returns Nil for root nodes.
func (g *Graph) Parent(n Node) Node { return g.nodes[g.index(n)].parent }

// Len returns the number of nodes in g.
func (g *Graph) Len() int { return g.slots.len() }

// Valid checks whether n identifies a node of g.
func (g *Graph) Valid(n Node) bool {
	i := n.slot()
	return n > Nil && g.slots.live(i) && g.nodes[i].gen == n.gen()
}

// SetWorld sets the global world transform.
// It applies to every root node.
func (g *Graph) SetWorld(m *linear.M4) {
	g.world = *m
	g.changed = true
}

// World returns the world transform of n.
// If n is Nil, it returns the global world transform.
// The value is only current after a call to Update.
func (g *Graph) World(n Node) *linear.M4 {
	if n == Nil {
		return &g.world
	}
	return &g.nodes[g.index(n)].world
}

// ForEach calls f for each descendant of prev.
// If prev is Nil, f is called for every node.
// Ancestors are processed first.
// The graph must not be changed until this
// method returns.
func (g *Graph) ForEach(prev Node, f func(Node)) {
	g.Until(prev, func(n Node) bool {
		f(n)
		return true
	})
}

// Until calls f for each descendant of prev.
// If prev is Nil, f is called for every node.
// Ancestors are processed first. If f returns false,
// Until returns immediately.
// The graph must not be changed until this
// method returns.
func (g *Graph) Until(prev Node, f func(Node) bool) {
	var first Node
	if prev == Nil {
		first = g.root
	} else {
		first = g.nodes[g.index(prev)].sub
	}
	if first == Nil {
		return
	}
	que := []Node{first}
	for len(que) > 0 {
		for n := que[0]; n != Nil; {
			if !f(n) {
				return
			}
			nd := &g.nodes[n.slot()]
			if nd.sub != Nil {
				que = append(que, nd.sub)
			}
			n = nd.next
		}
		que = que[1:]
	}
}

// Update updates the world transform of every node
// whose local transform, or the local transform of
// any of its ancestors, has changed.
func (g *Graph) Update() {
	var global linear.M4
	if g.world == (linear.M4{}) {
		global.I()
	} else {
		global = g.world
	}
	// Nodes whose world transform was recomputed
	// in this call.
	dirty := make(map[Node]bool)
	g.ForEach(Nil, func(n Node) {
		nd := &g.nodes[n.slot()]
		if !g.changed && !nd.local.Changed() && !dirty[nd.parent] {
			return
		}
		var pw *linear.M4
		if nd.parent == Nil {
			pw = &global
		} else {
			pw = &g.nodes[nd.parent.slot()].world
		}
		nd.world.Mul(pw, nd.local.Local())
		dirty[n] = true
	})
	g.changed = false
}
