// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package clades

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/js-arias/cladetax/reftree"
)

// Taxonomy is a reference taxonomy,
// a full taxonomic string per reference genome.
type Taxonomy map[string]string

// A NoReferenceDescendantError is an error
// produced when the subtree of a reference node
// contains no genome with a reference taxonomy.
type NoReferenceDescendantError struct {
	Node int
}

func (e NoReferenceDescendantError) Error() string {
	return fmt.Sprintf("node %d: no reference genome in subtree", e.Node)
}

// Fill completes the genome taxonomies
// whose walk stopped on a reference node.
// Such taxonomies start with the node identifier
// instead of the domain;
// the upper ranks are taken from the reference taxonomy
// of the genomes below the node,
// truncated just above the highest named rank
// and decided by majority
// (ties broken by the lexicographically smallest prefix).
// A genome with no named rank at all
// gets a species name
// from the genus of the reference prefix.
// Node names minted here are added to the given list
// and the result is sorted by clade name.
func Fill(t *reftree.Tree, genomes []GenomeTaxonomy, nodes []NodeName, ref Taxonomy) ([]GenomeTaxonomy, []NodeName, error) {
	// reference prefixes are stable per node:
	// the named part does not change the cut
	// beyond its leading rank
	cache := make(map[int]string)

	out := make([]GenomeTaxonomy, 0, len(genomes))
	nn := make([]NodeName, len(nodes))
	copy(nn, nodes)

	for _, gt := range genomes {
		tx := gt.Taxonomy
		if strings.HasPrefix(tx, "d__") {
			out = append(out, gt)
			continue
		}

		nodeStr, named, _ := strings.Cut(tx, ";")
		node, err := strconv.Atoi(nodeStr)
		if err != nil {
			return nil, nil, fmt.Errorf("genome %q: invalid taxonomy %q: %v", gt.Genome, tx, err)
		}
		limit := named
		if len(limit) > 3 {
			limit = limit[:3]
		}

		prefix, ok := cache[node]
		if !ok {
			prefix, err = refPrefix(t, node, limit, ref)
			if err != nil {
				return nil, nil, err
			}
			cache[node] = prefix
		}

		if named == "" {
			gi := strings.Index(prefix, "g__")
			if gi < 0 {
				return nil, nil, fmt.Errorf("node %d: no genus in reference taxonomy %q", node, prefix)
			}
			named = "s" + prefix[gi+1:] + " " + gt.Genome
			nn = append(nn, NodeName{Clade: named, Rep: gt.Genome})
		}
		out = append(out, GenomeTaxonomy{Genome: gt.Genome, Taxonomy: prefix + ";" + named})
	}

	sortNodes(nn)
	return out, nn, nil
}

// refPrefix votes the reference taxonomy prefix of a node
// among its reference descendants.
// Each taxonomy is cut just before the last segment
// matching the rank prefix of the named part
// (the last segment of any rank when the named part is empty);
// taxonomies without a cut point do not vote.
func refPrefix(t *reftree.Tree, node int, limit string, ref Taxonomy) (string, error) {
	count := make(map[string]int)
	for _, d := range t.Descendants(node) {
		n := t.Node(d)
		if n.Genome == "" {
			continue
		}
		full, ok := ref[n.Genome]
		if !ok {
			continue
		}
		j := strings.LastIndex(full, ";"+limit)
		if j < 0 {
			continue
		}
		count[full[:j]]++
	}
	if len(count) == 0 {
		return "", NoReferenceDescendantError{Node: node}
	}

	best, bestN := "", -1
	for p, c := range count {
		if c > bestN || (c == bestN && p < best) {
			best, bestN = p, c
		}
	}
	return best, nil
}
