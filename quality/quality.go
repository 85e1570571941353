// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package quality implements the quality ordering
// of the query genomes placed on a reference tree.
//
// The order decides which genome names a contested clade:
// genomes are processed from the highest
// to the lowest quality score,
// defined as completeness - 5 * contamination.
package quality

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/js-arias/cladetax/reftree"
	"gonum.org/v1/gonum/stat"
)

// Meta stores the quality metadata of a genome.
type Meta struct {
	Completeness  float64
	Contamination float64
}

// Score returns the quality score of a genome.
func (m Meta) Score() float64 {
	return m.Completeness - 5*m.Contamination
}

// Metadata is the quality metadata of a genome collection,
// keyed by genome identifier.
type Metadata map[string]Meta

var header = []string{
	"id",
	"checkm2_completeness",
	"checkm2_contamination",
}

// ReadTSV reads genome quality metadata from a TSV file.
//
// The TSV must contain the following fields:
//
//   - ID, the genome identifier
//   - checkm2_completeness, in the range [0,100]
//   - checkm2_contamination, in the range [0,100]
func ReadTSV(r io.Reader) (Metadata, error) {
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

	md := make(Metadata)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		id := strings.TrimSpace(row[fields["id"]])
		if id == "" {
			continue
		}

		var m Meta
		f := "checkm2_completeness"
		m.Completeness, err = strconv.ParseFloat(strings.TrimSpace(row[fields[f]]), 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
		}

		f = "checkm2_contamination"
		m.Contamination, err = strconv.ParseFloat(strings.TrimSpace(row[fields[f]]), 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
		}

		md[id] = m
	}
	return md, nil
}

// A MissingMetadataError is an error
// produced when a query genome on the tree
// has no quality metadata.
type MissingMetadataError struct {
	Genome string
}

func (e MissingMetadataError) Error() string {
	return fmt.Sprintf("genome %q: no quality metadata", e.Genome)
}

// A Genome is a query genome with its quality score.
type Genome struct {
	ID            string
	Completeness  float64
	Contamination float64
	Score         float64
}

// Order returns the query genomes of a tree
// in naming order:
// by quality score,
// highest first,
// with ties broken by genome identifier,
// in inverse lexicographic order.
// Reference leaves and leaves without a genome set
// are not query genomes.
func Order(t *reftree.Tree, md Metadata) ([]Genome, error) {
	var gs []Genome
	for _, id := range t.Leaves() {
		n := t.Node(id)
		if n.Genome == "" || n.MagSet == "" || n.MagSet == "GTDB" {
			continue
		}
		m, ok := md[n.Genome]
		if !ok {
			return nil, MissingMetadataError{Genome: n.Genome}
		}
		gs = append(gs, Genome{
			ID:            n.Genome,
			Completeness:  m.Completeness,
			Contamination: m.Contamination,
			Score:         m.Score(),
		})
	}
	sort.Slice(gs, func(i, j int) bool {
		if gs[i].Score != gs[j].Score {
			return gs[i].Score > gs[j].Score
		}
		return gs[i].ID > gs[j].ID
	})
	return gs, nil
}

// Stats is a summary of the quality score distribution
// of a genome collection.
type Stats struct {
	Mean   float64
	StdDev float64
	S05    float64 // 5% quantile
	S95    float64 // 95% quantile
}

// Summarize returns the quality score distribution
// of a genome collection.
func Summarize(gs []Genome) Stats {
	sc := make([]float64, 0, len(gs))
	for _, g := range gs {
		sc = append(sc, g.Score)
	}
	sort.Float64s(sc)
	return Stats{
		Mean:   stat.Mean(sc, nil),
		StdDev: stat.StdDev(sc, nil),
		S05:    stat.Quantile(0.05, stat.Empirical, sc, nil),
		S95:    stat.Quantile(0.95, stat.Empirical, sc, nil),
	}
}
