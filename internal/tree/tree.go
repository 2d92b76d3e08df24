// Package tree provides the task tree for hierarchical text generation.
//
// The tree is built once during planning, frozen, then enriched in place:
// the outline and writing phases only fill per-leaf fields, never restructure.
package tree

import (
	"fmt"
	"iter"

	"github.com/google/uuid"

	"github.com/ShayCichocki/fable/pkg/models"
)

// Node is one unit of the task tree. Task and WordBudget are set at creation
// and never mutated; Outline and Content are filled for leaves during the
// outline and writing phases.
type Node struct {
	// ID is the stable unique identifier, assigned at creation.
	ID string
	// Task is the writing work this node is responsible for.
	Task string
	// WordBudget is the word count assigned to this node by its parent.
	WordBudget int
	// Depth is the distance from the root (root is 0).
	Depth int
	// Children are the ordered sub-tasks; order is the eventual read order.
	Children []*Node
	// Outline is the writing outline, set for leaves during the outline phase.
	Outline string
	// Content is the generated prose, set for leaves during the writing phase.
	Content string

	// Planning diagnostics, recorded by the decomposition engine.
	ThresholdOutcome string
	JudgeDecision    string
	JudgeReasoning   string

	parent *Node
}

// IsLeaf returns true if the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Parent returns the node's parent, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Ancestors returns the node's ancestors from the root down to the parent.
// The root returns an empty slice.
func (n *Node) Ancestors() []*Node {
	var chain []*Node
	for p := n.parent; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	// Reverse so the root comes first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Limits constrains tree construction.
type Limits struct {
	// MaxDepth is the maximum node depth. A node at MaxDepth can never be
	// expanded.
	MaxDepth int
	// MinChildren is the minimum number of children per expansion.
	MinChildren int
}

// Tree owns the root node and the shared, immutable request metadata.
type Tree struct {
	root   *Node
	meta   models.Metadata
	limits Limits
	frozen bool
}

// New creates a tree with a single root node carrying the overall task and
// the total word budget.
func New(task string, wordBudget int, meta models.Metadata, limits Limits) *Tree {
	return &Tree{
		root: &Node{
			ID:         uuid.New().String(),
			Task:       task,
			WordBudget: wordBudget,
			Depth:      0,
		},
		meta:   meta,
		limits: limits,
	}
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return t.root
}

// Meta returns the shared request metadata.
func (t *Tree) Meta() models.Metadata {
	return t.meta
}

// MaxDepth returns the configured maximum depth.
func (t *Tree) MaxDepth() int {
	return t.limits.MaxDepth
}

// ChildSpec describes one child to attach during decomposition.
type ChildSpec struct {
	Task       string
	WordBudget int
}

// AttachChildren creates child nodes for the given specs, in order, and
// attaches them to parent. It fails if the tree is frozen, the parent already
// has children, the children would exceed the maximum depth, or fewer than
// MinChildren specs are supplied.
func (t *Tree) AttachChildren(parent *Node, specs []ChildSpec) ([]*Node, error) {
	if t.frozen {
		return nil, fmt.Errorf("tree is frozen: structure cannot change after planning")
	}
	if len(parent.Children) > 0 {
		return nil, fmt.Errorf("node %s already has children", parent.ID)
	}
	if parent.Depth+1 > t.limits.MaxDepth {
		return nil, fmt.Errorf("node %s at depth %d: children would exceed max depth %d",
			parent.ID, parent.Depth, t.limits.MaxDepth)
	}
	if len(specs) < t.limits.MinChildren {
		return nil, fmt.Errorf("node %s: %d children supplied, need at least %d",
			parent.ID, len(specs), t.limits.MinChildren)
	}

	children := make([]*Node, len(specs))
	for i, spec := range specs {
		children[i] = &Node{
			ID:         uuid.New().String(),
			Task:       spec.Task,
			WordBudget: spec.WordBudget,
			Depth:      parent.Depth + 1,
			parent:     parent,
		}
	}
	parent.Children = children
	return children, nil
}

// Freeze locks the tree structure. Called once planning completes; the
// outline and writing phases only fill per-leaf fields.
func (t *Tree) Freeze() {
	t.frozen = true
}

// Frozen reports whether the structure is locked.
func (t *Tree) Frozen() bool {
	return t.frozen
}

// Leaves iterates the leaf nodes depth-first, left to right. The sequence is
// lazy and restartable; the leaf order is the read order of the assembled
// document.
func (t *Tree) Leaves() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var walk func(n *Node) bool
		walk = func(n *Node) bool {
			if n.IsLeaf() {
				return yield(n)
			}
			for _, c := range n.Children {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(t.root)
	}
}

// Walk iterates every node depth-first, pre-order. Used for diagnostics.
func (t *Tree) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var walk func(n *Node) bool
		walk = func(n *Node) bool {
			if !yield(n) {
				return false
			}
			for _, c := range n.Children {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(t.root)
	}
}

// NodeCount returns the total number of nodes.
func (t *Tree) NodeCount() int {
	count := 0
	for range t.Walk() {
		count++
	}
	return count
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	count := 0
	for range t.Leaves() {
		count++
	}
	return count
}
