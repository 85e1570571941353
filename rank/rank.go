// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package rank provides the taxonomic ranks
// used when naming clades,
// and the per-domain RED values
// that define the expected boundary of each rank.
package rank

import (
	"fmt"
	"strconv"
	"strings"
)

// Rank is a taxonomic rank.
// Zero value is None,
// used for nodes without a novelty label.
type Rank int

// Valid taxonomic ranks,
// from the most to the least inclusive.
const (
	None Rank = iota
	Phylum
	Class
	Order
	Family
	Genus
	Species
)

var ranks = []Rank{Phylum, Class, Order, Family, Genus, Species}

// Ranks returns the named ranks,
// from phylum to species.
func Ranks() []Rank {
	r := make([]Rank, len(ranks))
	copy(r, ranks)
	return r
}

// String returns the lowercase name of a rank.
func (r Rank) String() string {
	switch r {
	case Phylum:
		return "phylum"
	case Class:
		return "class"
	case Order:
		return "order"
	case Family:
		return "family"
	case Genus:
		return "genus"
	case Species:
		return "species"
	}
	return ""
}

// Letter returns the one-letter prefix of a rank
// used in clade names
// (e.g. "g" for genus, as in "g__SPIREOTU_01842612").
func (r Rank) Letter() string {
	s := r.String()
	if s == "" {
		return ""
	}
	return s[:1]
}

// An UnrecognizedNoveltyLabelError is an error
// produced when a novelty label in a tree table
// does not match any taxonomic rank.
type UnrecognizedNoveltyLabelError struct {
	Label string
}

func (e UnrecognizedNoveltyLabelError) Error() string {
	return fmt.Sprintf("unrecognized novelty label %q", e.Label)
}

// Parse returns the rank encoded by a novelty label.
// A label is a rank name
// optionally followed by a RED interval,
// for example "Genus (0.82-0.95]"
// or "Species/Strain (0.95-1]".
func Parse(label string) (Rank, error) {
	f := strings.Fields(label)
	if len(f) == 0 {
		return None, UnrecognizedNoveltyLabelError{Label: label}
	}
	name, _, _ := strings.Cut(f[0], "/")
	switch strings.ToLower(name) {
	case "phylum":
		return Phylum, nil
	case "class":
		return Class, nil
	case "order":
		return Order, nil
	case "family":
		return Family, nil
	case "genus":
		return Genus, nil
	case "species":
		return Species, nil
	}
	return None, UnrecognizedNoveltyLabelError{Label: label}
}

// Cutoffs stores the median RED value
// expected for each taxonomic rank.
type Cutoffs map[Rank]float64

// Median RED values per rank,
// phylum to genus,
// from GTDB r220.
var (
	bacteria = []float64{
		0.3280941769231098,
		0.449727838796469,
		0.6083500718998613,
		0.7576141066814935,
		0.9220350796053899,
	}
	archaea = []float64{
		0.2128708845277663,
		0.35878546884559126,
		0.5316295929627715,
		0.7250725361353227,
		0.9069458981600348,
	}
)

// Bacteria returns the default RED cutoffs
// for the domain Bacteria.
func Bacteria() Cutoffs {
	return Custom(bacteria)
}

// Archaea returns the default RED cutoffs
// for the domain Archaea.
func Archaea() Cutoffs {
	return Custom(archaea)
}

// ForDomain returns the default RED cutoffs
// for a domain token
// (as in a taxonomy string, e.g. "d__Bacteria").
// Any domain other than Bacteria uses the archaeal values.
func ForDomain(domain string) Cutoffs {
	if domain == "d__Bacteria" {
		return Bacteria()
	}
	return Archaea()
}

// Custom builds the cutoffs from an ordered list
// of five RED values,
// phylum to genus.
// The species cutoff is always 1.
func Custom(v []float64) Cutoffs {
	c := make(Cutoffs, len(ranks))
	for i, r := range ranks[:len(ranks)-1] {
		c[r] = v[i]
	}
	c[Species] = 1
	return c
}

// ParseCutoffs builds the cutoffs from a comma separated list
// of five RED values,
// phylum to genus.
func ParseCutoffs(s string) (Cutoffs, error) {
	f := strings.Split(s, ",")
	if len(f) != len(ranks)-1 {
		return nil, fmt.Errorf("expecting %d cutoff values, got %d", len(ranks)-1, len(f))
	}
	v := make([]float64, 0, len(f))
	for _, c := range f {
		x, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cutoff value %q: %v", c, err)
		}
		if x < 0 || x > 1 {
			return nil, fmt.Errorf("cutoff value %q out of [0,1] range", c)
		}
		v = append(v, x)
	}
	return Custom(v), nil
}
