// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package cutoffs implements a command to print
// the RED cutoff values used when naming clades.
package cutoffs

import (
	"fmt"

	"github.com/js-arias/cladetax/rank"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: "cutoffs [--domain <domain>] [--red-cutoffs <value>,...]",
	Short: "print the RED cutoff values in use",
	Long: `
Command cutoffs prints the median RED value expected for each taxonomic rank,
as used when naming clades.

By default, it prints the bacterial medians from GTDB r220. Use the flag
--domain to set a different domain (any domain other than "d__Bacteria" uses
the archaeal medians), or the flag --red-cutoffs with five comma separated
values, from phylum to genus, to print an explicit vector back, validated.

The output is printed in the standard output as a tab-delimited table with a
rank and its median RED per row.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var domain string
var cutFlag string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&domain, "domain", "d__Bacteria", "")
	c.Flags().StringVar(&cutFlag, "red-cutoffs", "", "")
}

func run(c *command.Command, args []string) error {
	cut := rank.ForDomain(domain)
	if cutFlag != "" {
		var err error
		cut, err = rank.ParseCutoffs(cutFlag)
		if err != nil {
			return fmt.Errorf("flag --red-cutoffs: %v", err)
		}
	}

	fmt.Fprintf(c.Stdout(), "rank\tred\n")
	for _, r := range rank.Ranks() {
		fmt.Fprintf(c.Stdout(), "%s\t%.16g\n", r, cut[r])
	}
	return nil
}
