// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package clades implements the naming of novel clades
// on a reference tree.
//
// The tree is traversed bottom-up,
// one query genome at a time,
// in quality order:
// each genome walks its ancestor chain
// deciding at which node each taxonomic rank boundary sits,
// naming the boundary after the first genome that reaches it.
// Once a node is named,
// every later genome passing through the node
// inherits its names.
// A walk that reaches a node with reference descendants stops there,
// recording the node,
// and the taxonomy above the node is completed afterwards
// from the reference taxonomy of its subtree
// (see Fill).
package clades

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/js-arias/cladetax/quality"
	"github.com/js-arias/cladetax/rank"
	"github.com/js-arias/cladetax/reftree"
)

// GenomeTaxonomy is the taxonomy assigned to a query genome.
// The taxonomy is a semicolon separated string
// from the domain to the species,
// or a bare node identifier
// when the walk of the genome stopped
// on a node with reference descendants.
type GenomeTaxonomy struct {
	Genome   string
	Taxonomy string
}

// NodeName is a clade name minted for a tree node.
// A name without an anchor node
// (for example a species name,
// or a rank with no qualifying ancestor)
// has Anchored set to false.
type NodeName struct {
	Node     int
	Anchored bool
	Clade    string
	Rep      string // the genome that named the clade
}

// A Progress function is called once per genome,
// in processing order.
type Progress func(genome string)

// An InvertedNoveltyError is an error
// produced when the novelty labels of a branch are inverted,
// with the parent side more specific than the node side.
type InvertedNoveltyError struct {
	Node         int
	Lower, Upper rank.Rank
}

func (e InvertedNoveltyError) Error() string {
	return fmt.Sprintf("node %d: inverted novelty labels: %v above %v", e.Node, e.Lower, e.Upper)
}

var taxa = rank.Ranks()

const numRanks = 6

func idx(r rank.Rank) int {
	return int(r) - int(rank.Phylum)
}

// ranksBetween returns the half-open rank interval [lo, hi).
func ranksBetween(lo, hi rank.Rank) []rank.Rank {
	return taxa[idx(lo):idx(hi)]
}

// closer reports whether the value c is strictly closer
// to the median m than the value p.
func closer(c, p, m float64) bool {
	return math.Abs(c-m) < math.Abs(p-m)
}

// assignment of a rank for a single genome.
type assignKind int

const (
	unset      assignKind = iota
	anchored              // named, anchored on a tree node
	unanchored            // named at genome level only
	refStop               // deferred to the reference taxonomy of a node
)

type assign struct {
	kind  assignKind
	node  int // anchor node, or the reference node on refStop
	clade string
}

// A pending candidate is an already visited node
// whose rank range is not yet finalized:
// the decision is deferred until the next ancestor
// settles the RED comparison.
type pending struct {
	node  int
	ranks []rank.Rank
}

type namer struct {
	t      *reftree.Tree
	cut    rank.Cutoffs
	domain string

	// ledger of names already given to tree nodes;
	// once written,
	// a (node, rank) entry is reused by every later genome.
	ledger map[int]map[rank.Rank]string

	genomes  []GenomeTaxonomy
	nodes    []NodeName
	cladeRep map[string]string // clade name -> genome that minted it
	taxOf    map[string]string // genome -> assigned taxonomy
	leafOf   map[string]int    // genome -> leaf node
}

// Name assigns a taxonomy to each query genome of a tree
// and names the tree nodes that anchor each new clade.
// Genomes must be given in naming order
// (see quality.Order);
// the order decides which genome names a contested boundary.
// The progress function may be nil.
func Name(t *reftree.Tree, genomes []quality.Genome, domain string, cut rank.Cutoffs, progress Progress) ([]GenomeTaxonomy, []NodeName, error) {
	if cut == nil {
		cut = rank.ForDomain(domain)
	}
	nm := &namer{
		t:        t,
		cut:      cut,
		domain:   domain,
		ledger:   make(map[int]map[rank.Rank]string),
		cladeRep: make(map[string]string),
		taxOf:    make(map[string]string),
		leafOf:   make(map[string]int),
	}
	for _, id := range t.Leaves() {
		if n := t.Node(id); n.Genome != "" {
			nm.leafOf[n.Genome] = id
		}
	}

	for _, g := range genomes {
		if progress != nil {
			progress(g.ID)
		}
		if err := nm.nameGenome(g.ID); err != nil {
			return nil, nil, err
		}
	}

	sortNodes(nm.nodes)
	return nm.genomes, nm.nodes, nil
}

func (nm *namer) addNode(n NodeName) {
	nm.nodes = append(nm.nodes, n)
	if _, ok := nm.cladeRep[n.Clade]; !ok {
		nm.cladeRep[n.Clade] = n.Rep
	}
}

func (nm *namer) nameGenome(g string) error {
	leaf, ok := nm.leafOf[g]
	if !ok {
		return fmt.Errorf("genome %q: not a leaf of the tree", g)
	}
	parents := nm.t.Ancestors(leaf)
	bounds := make(map[int][2]rank.Rank, len(parents))
	for _, p := range parents {
		lo, hi := nm.t.NoveltyBounds(p)
		bounds[p] = [2]rank.Rank{lo, hi}
	}

	var tax [numRanks]assign
	var pend *pending

	for _, p := range parents {
		nb := bounds[p]
		skip := false
		var reds []rank.Rank
		switch {
		case nb[0] == nb[1]:
			// the branch spans a single rank:
			// sibling branches at the same rank vie for it
			reds = []rank.Rank{nb[0]}
			if nb[0] != rank.None && nm.hasCloserSibling(p, nb[0], pend) {
				skip = true
			}
		case nb[0] != rank.None:
			if idx(nb[0]) > idx(nb[1]) {
				return InvertedNoveltyError{Node: p, Lower: nb[0], Upper: nb[1]}
			}
			// the branch can name any rank in [lower, upper)
			reds = ranksBetween(nb[0], nb[1])
		default:
			// reference node: defer to the reference taxonomy
			reds = []rank.Rank{rank.None}
		}

		if pend != nil {
			name := false
			if pend.ranks[0] == reds[0] || (reds[0] == rank.None && pend.ranks[0] == nb[1]) {
				if closer(nm.t.EdgeRED(pend.node), nm.t.EdgeRED(p), nm.cut[pend.ranks[0]]) {
					name = true
					skip = reds[0] != rank.None
				} else {
					// the current ancestor is a better anchor
					// for the first pending rank
					pend.ranks = pend.ranks[1:]
					name = len(pend.ranks) > 1
				}
			} else {
				name = true
			}
			if name {
				nm.mint(pend, g, &tax)
			}
			pend = nil
		}

		if skip {
			continue
		}

		if entries, ok := nm.ledger[p]; ok {
			// an earlier genome already named this node:
			// its decision is final
			for r, c := range entries {
				tax[idx(r)] = assign{kind: anchored, node: p, clade: c}
			}
			break
		}

		if reds[0] == rank.None {
			if nb[1] == rank.None {
				break
			}
			i := idx(nb[1])
			// pull the boundary one level down
			// when the reference node itself is further
			// from the rank median than its branch
			if !closer(nm.t.RED(p), nm.t.EdgeRED(p), nm.cut[nb[1]]) {
				i++
			}
			if i == 0 {
				break
			}
			tax[i-1] = assign{kind: refStop, node: p}
			break
		}

		pend = &pending{node: p, ranks: reds}
	}

	fill := [numRanks]bool{}
	allEmpty := true
	hi := -1
	for i := range tax {
		if tax[i].kind != unset {
			allEmpty = false
			hi = i
			break
		}
	}
	if allEmpty {
		for i := range fill {
			fill[i] = true
		}
	} else if hi != 0 && tax[hi].kind != refStop {
		if err := nm.inherit(&tax, hi, tax[hi].clade); err != nil {
			return fmt.Errorf("genome %q: %v", g, err)
		}
	}

	var prenamed []rank.Rank
	for i, r := range taxa {
		if tax[i].kind != unset {
			prenamed = append(prenamed, r)
		}
	}

	var speciesName string
	for i, r := range taxa {
		e := tax[i]
		cladeName := ""
		if e.kind != unset {
			if e.kind == refStop {
				for j := range fill {
					fill[j] = true
				}
				continue
			}
			for j, rr := range taxa {
				fill[j] = !strings.Contains(e.clade, rr.Letter()+"__")
			}
			cladeName = e.clade
		}

		if e.kind == unset && fill[i] {
			if r == rank.Species {
				if speciesName == "" {
					continue
				}
				cladeName = speciesName
			} else {
				cladeName = r.Letter() + "__" + g
			}

			anchor, found := -1, false
			if r != rank.Species && isMid(prenamed, r) {
				anchor, found = nm.viableAnchor(parents, bounds, r)
			}
			if found {
				lg := nm.ledger[anchor]
				if lg == nil {
					lg = make(map[rank.Rank]string)
					nm.ledger[anchor] = lg
				}
				lg[r] = cladeName
				tax[i] = assign{kind: anchored, node: anchor, clade: cladeName}
				nm.addNode(NodeName{Node: anchor, Anchored: true, Clade: cladeName, Rep: g})
			} else {
				tax[i] = assign{kind: unanchored, clade: cladeName}
				nm.addNode(NodeName{Clade: cladeName, Rep: g})
			}
		}

		if r == rank.Genus && cladeName != "" {
			// species names are scoped to the genus:
			// every genome of the genus reuses the local name
			// of the genus founder
			gi := strings.Index(cladeName, "g__")
			speciesName = "s" + cladeName[gi+1:] + " " + g
		}
	}

	s := nm.domain
	for i := range taxa {
		e := tax[i]
		switch e.kind {
		case unset:
			continue
		case refStop:
			// restart from the reference node:
			// the upper taxonomy is resolved by Fill
			s = strconv.Itoa(e.node)
		default:
			s += ";" + e.clade
		}
	}
	nm.genomes = append(nm.genomes, GenomeTaxonomy{Genome: g, Taxonomy: s})
	nm.taxOf[g] = s
	return nil
}

// mint names every not yet assigned rank of a pending candidate
// after the current genome,
// anchored on the candidate node.
// Species names are never minted here.
func (nm *namer) mint(pd *pending, g string, tax *[numRanks]assign) {
	minted := make(map[rank.Rank]string, len(pd.ranks))
	for _, r := range pd.ranks {
		if r == rank.Species || tax[idx(r)].kind != unset {
			continue
		}
		clade := r.Letter() + "__" + g
		tax[idx(r)] = assign{kind: anchored, node: pd.node, clade: clade}
		nm.addNode(NodeName{Node: pd.node, Anchored: true, Clade: clade, Rep: g})
		minted[r] = clade
	}
	if len(minted) > 0 {
		nm.ledger[pd.node] = minted
	}
}

// hasCloserSibling reports whether any sibling branch
// vying for the same rank at node p
// is strictly closer to the rank median
// than the branch of p itself.
// The current pending candidate is not a vying sibling.
func (nm *namer) hasCloserSibling(p int, r rank.Rank, pend *pending) bool {
	cur := -1
	if pend != nil {
		cur = pend.node
	}
	m := nm.cut[r]
	for _, c := range nm.t.Children(p) {
		if c == cur {
			continue
		}
		if nm.t.Node(c).Genome != "" {
			continue
		}
		if lo, _ := nm.t.NoveltyBounds(c); lo != r {
			continue
		}
		if closer(nm.t.EdgeRED(c), nm.t.EdgeRED(p), m) {
			return true
		}
	}
	return false
}

// inherit copies the taxonomy above an already named clade
// from the genome that minted it.
func (nm *namer) inherit(tax *[numRanks]assign, hi int, clade string) error {
	rep, ok := nm.cladeRep[clade]
	if !ok {
		return fmt.Errorf("clade %q: no representative recorded", clade)
	}
	full, ok := nm.taxOf[rep]
	if !ok {
		return fmt.Errorf("clade %q: representative %q has no taxonomy", clade, rep)
	}
	j := strings.Index(full, ";"+clade)
	if j < 0 {
		return fmt.Errorf("clade %q: not in taxonomy of %q", clade, rep)
	}
	parts := strings.Split(full[:j], ";")
	for i := 0; i < len(parts); i++ {
		tok := parts[len(parts)-1-i]
		if strings.HasPrefix(tok, "d__") {
			continue
		}
		target := hi - 1 - i
		if target < 0 {
			continue
		}
		if tok[0] >= '0' && tok[0] <= '9' {
			node, err := strconv.Atoi(tok)
			if err != nil {
				return fmt.Errorf("clade %q: invalid taxonomy of %q: %v", clade, rep, err)
			}
			tax[target] = assign{kind: refStop, node: node}
			continue
		}
		tax[target] = assign{kind: unanchored, clade: tok}
	}
	return nil
}

// isMid reports whether some rank below the target rank
// was already assigned during the walk.
func isMid(prenamed []rank.Rank, r rank.Rank) bool {
	for _, p := range prenamed {
		if idx(r) < idx(p) {
			return true
		}
	}
	return false
}

// viableAnchor returns the node for a rank
// filled after the walk:
// among the ancestors whose novelty interval contains the rank,
// that are not reference nodes,
// and that are not already claimed at the rank or above,
// the one closest to the root.
func (nm *namer) viableAnchor(parents []int, bounds map[int][2]rank.Rank, r rank.Rank) (int, bool) {
	anchor, found := 0, false
	for _, p := range parents {
		nb := bounds[p]
		if nb[0] == rank.None {
			continue
		}
		if idx(nb[0]) > idx(r) || idx(nb[1]) < idx(r) {
			continue
		}
		if !nm.isLowerNode(p, r) {
			continue
		}
		anchor, found = p, true
	}
	return anchor, found
}

// isLowerNode reports whether every rank already claimed
// for a node on the ledger
// is below the target rank.
func (nm *namer) isLowerNode(p int, r rank.Rank) bool {
	lg, ok := nm.ledger[p]
	if !ok {
		return true
	}
	for k := range lg {
		if idx(r) >= idx(k) {
			return false
		}
	}
	return true
}
