// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package clades

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

func sortNodes(nn []NodeName) {
	sort.Slice(nn, func(i, j int) bool {
		return nn[i].Clade < nn[j].Clade
	})
}

// ReadTaxonomy reads a reference taxonomy
// from a headerless TSV file
// with two columns:
// the genome identifier
// and its full taxonomic string.
func ReadTaxonomy(r io.Reader) (Taxonomy, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'
	tsv.FieldsPerRecord = 2

	tax := make(Taxonomy)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		g := strings.TrimSpace(row[0])
		if g == "" {
			continue
		}
		tax[g] = strings.TrimSpace(row[1])
	}
	return tax, nil
}

// WriteGenomes writes the genome taxonomies
// as a TSV file with the fields
// "genome" and "taxonomy",
// in the given order.
func WriteGenomes(w io.Writer, genomes []GenomeTaxonomy) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true
	defer tsv.Flush()

	if err := tsv.Write([]string{"genome", "taxonomy"}); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}
	for _, g := range genomes {
		row := []string{g.Genome, g.Taxonomy}
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("while writing genome %q: %v", g.Genome, err)
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteNodes writes the minted clade names
// as a TSV file with the fields
// "node", "clade" and "genome_rep",
// in the given order.
// The node field is left empty
// on clades without an anchor node.
func WriteNodes(w io.Writer, nodes []NodeName) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true
	defer tsv.Flush()

	if err := tsv.Write([]string{"node", "clade", "genome_rep"}); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}
	for _, n := range nodes {
		node := ""
		if n.Anchored {
			node = strconv.Itoa(n.Node)
		}
		row := []string{node, n.Clade, n.Rep}
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("while writing clade %q: %v", n.Clade, err)
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
