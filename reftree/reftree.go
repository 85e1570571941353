// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package reftree implements reading and indexing
// of an annotated reference tree table.
//
// The tree is a forest of rooted trees
// stored as a parent-child table.
// Internal nodes carry a relative evolutionary divergence (RED) value
// and, next to a rank transition,
// a novelty label naming the rank crossed by their branch.
// Leaves carry a genome identifier
// and a group tag separating reference genomes
// from the query genomes awaiting naming.
package reftree

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/js-arias/cladetax/rank"
)

// A Node is a node of the reference tree.
// A node is a root if it is its own parent.
type Node struct {
	ID     int
	Parent int

	// RED of the node,
	// absent (zero) on leaves.
	RED float64

	// Rank named by the branch that ends on this node,
	// rank.None if the branch has no novelty label.
	Novelty rank.Rank

	// IsRef indicates that the node belongs
	// to the reference ("gtdb") part of the tree.
	IsRef bool

	// Genome is the genome identifier of a leaf,
	// empty on internal nodes.
	Genome string

	// MagSet is the source genome set of a query leaf,
	// empty on reference leaves and internal nodes.
	MagSet string
}

// A MissingNodeError is an error
// produced when a node references a parent
// that is not defined in the tree table.
type MissingNodeError struct {
	Node   int
	Parent int
}

func (e MissingNodeError) Error() string {
	return fmt.Sprintf("node %d: parent %d not in tree", e.Node, e.Parent)
}

// A Tree is an indexed reference tree.
// All indices are built once
// and never mutated afterwards.
type Tree struct {
	nodes     map[int]*Node
	ids       []int // in input order
	children  map[int][]int
	ancestors map[int][]int
}

// New creates a tree from a list of nodes.
func New(nodes []Node) (*Tree, error) {
	t := &Tree{
		nodes:     make(map[int]*Node, len(nodes)),
		children:  make(map[int][]int),
		ancestors: make(map[int][]int, len(nodes)),
	}
	for _, n := range nodes {
		if _, dup := t.nodes[n.ID]; dup {
			return nil, fmt.Errorf("node %d: repeated node", n.ID)
		}
		nc := n
		t.nodes[n.ID] = &nc
		t.ids = append(t.ids, n.ID)
	}
	for _, id := range t.ids {
		n := t.nodes[id]
		if _, ok := t.nodes[n.Parent]; !ok {
			return nil, MissingNodeError{Node: n.ID, Parent: n.Parent}
		}
		// self-parent rows mark forest roots
		if n.Parent != n.ID {
			t.children[n.Parent] = append(t.children[n.Parent], n.ID)
		}
	}
	for _, id := range t.ids {
		t.ancestors[id] = t.buildAncestors(id)
	}
	return t, nil
}

func (t *Tree) buildAncestors(id int) []int {
	var anc []int
	for cur := id; ; {
		p := t.nodes[cur].Parent
		if p == cur {
			break
		}
		anc = append(anc, p)
		cur = p
	}
	return anc
}

var header = []string{
	"parent",
	"node",
	"nongtdb_group",
	"genome",
	"magset",
	"red",
	"novelty_red",
}

func isNull(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "NA"
}

// ReadTSV reads a tree table from a TSV file.
//
// The TSV must contain the following fields:
//
//   - parent, the identifier of the parent node
//   - node, the identifier of the node
//   - nongtdb_group, "gtdb" on reference nodes
//   - genome, the genome identifier of a leaf
//   - magset, the source genome set of a query leaf
//   - RED, the relative evolutionary divergence of an internal node
//   - novelty_red, the novelty label of the branch
//
// Absent values are given as "NA"
// or left empty.
// Here is an example file:
//
//	parent	node	nongtdb_group	genome	magset	RED	novelty_red
//	10	1	nongtdb	SPIREOTU_01842612	SPIRE	NA	NA
//	1000	10	nongtdb	NA	NA	1.0	Species/Strain (0.95-1]
//	0	1000	nongtdb	NA	NA	0.92	Genus (0.82-0.95]
//	0	0	nongtdb	NA	NA	0.3	Phylum (0-0.28]
func ReadTSV(r io.Reader) (*Tree, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	var nodes []Node
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		var n Node

		f := "node"
		n.ID, err = strconv.Atoi(strings.TrimSpace(row[fields[f]]))
		if err != nil {
			return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
		}

		f = "parent"
		n.Parent, err = strconv.Atoi(strings.TrimSpace(row[fields[f]]))
		if err != nil {
			return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
		}

		f = "nongtdb_group"
		if g := strings.TrimSpace(row[fields[f]]); isNull(g) || strings.ToLower(g) == "gtdb" {
			n.IsRef = true
		}

		f = "genome"
		if g := strings.TrimSpace(row[fields[f]]); !isNull(g) {
			n.Genome = g
		}

		f = "magset"
		if m := strings.TrimSpace(row[fields[f]]); !isNull(m) {
			n.MagSet = m
		}

		f = "red"
		if v := strings.TrimSpace(row[fields[f]]); !isNull(v) {
			n.RED, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
			}
		}

		f = "novelty_red"
		if l := strings.TrimSpace(row[fields[f]]); !isNull(l) {
			n.Novelty, err = rank.Parse(l)
			if err != nil {
				return nil, fmt.Errorf("on row %d, field %q: %w", ln, f, err)
			}
		}

		nodes = append(nodes, n)
	}

	return New(nodes)
}

// Node returns the node with the given identifier,
// or nil if the node is not in the tree.
func (t *Tree) Node(id int) *Node {
	return t.nodes[id]
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.ids)
}

// IsRoot reports whether a node is the root of the forest
// (i.e. it is its own parent).
func (t *Tree) IsRoot(id int) bool {
	n := t.nodes[id]
	return n != nil && n.Parent == n.ID
}

// Ancestors returns the ancestor chain of a node,
// from its immediate parent up to,
// and including,
// the root of its tree.
func (t *Tree) Ancestors(id int) []int {
	return t.ancestors[id]
}

// Children returns the children of a node,
// in input order.
// Self-parent root rows are not children of themselves.
func (t *Tree) Children(id int) []int {
	return t.children[id]
}

// Descendants returns all descendants of a node,
// in pre-order.
func (t *Tree) Descendants(id int) []int {
	var desc []int
	for _, c := range t.children[id] {
		desc = append(desc, c)
		desc = append(desc, t.Descendants(c)...)
	}
	return desc
}

// Leaves returns the identifiers of the terminal nodes,
// in input order.
func (t *Tree) Leaves() []int {
	var ls []int
	for _, id := range t.ids {
		if len(t.children[id]) == 0 {
			ls = append(ls, id)
		}
	}
	return ls
}

// RED returns the RED value of a node.
func (t *Tree) RED(id int) float64 {
	n := t.nodes[id]
	if n == nil {
		return 0
	}
	return n.RED
}

// EdgeRED returns the RED value at the top of the branch
// that ends on a node,
// that is,
// the RED of its parent.
// It is zero for a root.
func (t *Tree) EdgeRED(id int) float64 {
	n := t.nodes[id]
	if n == nil || n.Parent == n.ID {
		return 0
	}
	return t.nodes[n.Parent].RED
}

// NoveltyBounds returns the rank interval
// that the branch ending on a node can name.
// The first rank is taken from the novelty label of the parent
// and the second from the label of the node itself,
// so the branch spans the half-open interval [first, second).
// On a reference node,
// or when the parent label is absent,
// the first rank is rank.None:
// the branch defers to the reference taxonomy.
// When the node has no label at all
// both ranks are rank.None.
func (t *Tree) NoveltyBounds(id int) (rank.Rank, rank.Rank) {
	n := t.nodes[id]
	if n == nil || n.Novelty == rank.None {
		return rank.None, rank.None
	}
	if n.IsRef {
		return rank.None, n.Novelty
	}
	p := t.nodes[n.Parent]
	if p.Novelty == rank.None {
		return rank.None, rank.None
	}
	return p.Novelty, n.Novelty
}
