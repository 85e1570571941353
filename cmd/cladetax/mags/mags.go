// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mags implements a command to print
// the query genomes of a tree in naming order.
package mags

import (
	"fmt"
	"os"

	"github.com/js-arias/cladetax/quality"
	"github.com/js-arias/cladetax/reftree"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: "mags --tree <file> --metadata <file>",
	Short: "print the query genomes in naming order",
	Long: `
Command mags reads an annotated reference tree and the quality metadata of
its query genomes, and prints the query genomes in the order in which they
will be processed when naming clades: from the highest to the lowest quality
score, defined as completeness - 5 * contamination, with ties broken by the
genome identifier.

The flag --tree is required and indicates the tree table, and the flag
--metadata is required and indicates the quality metadata table.

The output is printed in the standard output as a tab-delimited table with
the following columns:

	genome         the genome identifier
	completeness   the checkm2 completeness
	contamination  the checkm2 contamination
	score          the quality score

After the table, a comment line gives the mean, standard deviation, and the
5% and 95% quantiles of the score distribution.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var treeFile string
var metaFile string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&treeFile, "tree", "", "")
	c.Flags().StringVar(&metaFile, "metadata", "", "")
}

func run(c *command.Command, args []string) error {
	if treeFile == "" {
		return c.UsageError("expecting tree file, flag --tree")
	}
	if metaFile == "" {
		return c.UsageError("expecting metadata file, flag --metadata")
	}

	t, err := readTree(treeFile)
	if err != nil {
		return err
	}
	md, err := readMetadata(metaFile)
	if err != nil {
		return err
	}

	genomes, err := quality.Order(t, md)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Stdout(), "genome\tcompleteness\tcontamination\tscore\n")
	for _, g := range genomes {
		fmt.Fprintf(c.Stdout(), "%s\t%.4f\t%.4f\t%.4f\n", g.ID, g.Completeness, g.Contamination, g.Score)
	}
	if len(genomes) == 0 {
		return nil
	}

	st := quality.Summarize(genomes)
	fmt.Fprintf(c.Stdout(), "# mean %.4f\tstdev %.4f\ts-05 %.4f\ts-95 %.4f\n", st.Mean, st.StdDev, st.S05, st.S95)
	return nil
}

func readTree(name string) (*reftree.Tree, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := reftree.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return t, nil
}

func readMetadata(name string) (quality.Metadata, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	md, err := quality.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return md, nil
}
