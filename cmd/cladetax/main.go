// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// CladeTax is a tool to name novel clades
// placed on a taxonomic reference tree.
package main

import (
	"github.com/js-arias/cladetax/cmd/cladetax/cutoffs"
	"github.com/js-arias/cladetax/cmd/cladetax/mags"
	"github.com/js-arias/cladetax/cmd/cladetax/run"
	"github.com/js-arias/command"
)

var app = &command.Command{
	Usage: "cladetax <command> [<argument>...]",
	Short: "a tool to name novel clades on a reference tree",
}

func init() {
	app.Add(run.Command)
	app.Add(mags.Command)
	app.Add(cutoffs.Command)
}

func main() {
	app.Main()
}
