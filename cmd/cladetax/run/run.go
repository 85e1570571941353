// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package run implements a command to run the full naming pipeline
// on an annotated reference tree.
package run

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/js-arias/cladetax/clades"
	"github.com/js-arias/cladetax/quality"
	"github.com/js-arias/cladetax/rank"
	"github.com/js-arias/cladetax/reftree"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `run --tree <file> --metadata <file> --reference <file>
	[--domain <domain>] [--red-cutoffs <value>,...]
	[--debug] [--quiet]
	-o|--output <dir>`,
	Short: "assign a taxonomy to the query genomes of a tree",
	Long: `
Command run reads an annotated reference tree, the quality metadata of its
query genomes, and the reference taxonomy of its reference genomes, assigns a
full taxonomic string to each query genome, and names the tree nodes that
anchor each newly named clade.

Genomes are processed from the highest to the lowest quality, defined as
completeness - 5 * contamination, so the best genome passing through a node
gives the node its name, and every later genome inherits it. A genome whose
walk ends on a node with reference descendants takes the upper part of its
taxonomy from the reference taxonomy of that node.

The flag --tree is required and indicates the tree table, a tab-delimited
file with the columns parent, node, nongtdb_group, genome, magset, RED and
novelty_red.

The flag --metadata is required and indicates the quality metadata table, a
tab-delimited file with the columns ID, checkm2_completeness and
checkm2_contamination.

The flag --reference is required and indicates the reference taxonomy, a
headerless tab-delimited file with a genome identifier and its taxonomic
string per row.

By default, genomes are assigned to the domain Bacteria and the naming uses
the bacterial RED medians from GTDB r220. Use the flag --domain to set a
different domain (any domain other than "d__Bacteria" uses the archaeal
medians), or the flag --red-cutoffs with five comma separated values, from
phylum to genus, to set the medians explicitly.

The flag --output, or -o, is required and indicates the directory for the
output files, created if it does not exist. Two tab-delimited files are
written:

	genome_taxonomy.tsv  the taxonomy of each query genome,
	                     in quality order
	node_names.tsv       the node, name, and naming genome of each
	                     new clade, by clade name

Nothing is written if any stage of the pipeline fails.

The flag --debug prints a log line for each genome as it is processed, and
the flag --quiet suppresses all diagnostic output.
	`,
	SetFlags: setFlags,
	Run:      runCmd,
}

var treeFile string
var metaFile string
var refFile string
var domain string
var cutFlag string
var output string
var debug bool
var quiet bool

func setFlags(c *command.Command) {
	c.Flags().StringVar(&treeFile, "tree", "", "")
	c.Flags().StringVar(&metaFile, "metadata", "", "")
	c.Flags().StringVar(&refFile, "reference", "", "")
	c.Flags().StringVar(&domain, "domain", "d__Bacteria", "")
	c.Flags().StringVar(&cutFlag, "red-cutoffs", "", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
	c.Flags().BoolVar(&debug, "debug", false, "")
	c.Flags().BoolVar(&quiet, "quiet", false, "")
}

func runCmd(c *command.Command, args []string) error {
	if treeFile == "" {
		return c.UsageError("expecting tree file, flag --tree")
	}
	if metaFile == "" {
		return c.UsageError("expecting metadata file, flag --metadata")
	}
	if refFile == "" {
		return c.UsageError("expecting reference taxonomy file, flag --reference")
	}
	if output == "" {
		return c.UsageError("expecting output directory, flag --output")
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(c.Stderr(), &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cut := rank.ForDomain(domain)
	if cutFlag != "" {
		var err error
		cut, err = rank.ParseCutoffs(cutFlag)
		if err != nil {
			return fmt.Errorf("flag --red-cutoffs: %v", err)
		}
	}

	t, err := readTree(treeFile)
	if err != nil {
		return err
	}
	md, err := readMetadata(metaFile)
	if err != nil {
		return err
	}
	ref, err := readTaxonomy(refFile)
	if err != nil {
		return err
	}

	genomes, err := quality.Order(t, md)
	if err != nil {
		return err
	}
	slog.Info("genomes to name", "genomes", len(genomes), "nodes", t.Len())

	var bar *pb.ProgressBar
	if !quiet {
		bar = pb.Full.Start(len(genomes))
		bar.Set("prefix", "naming: ")
		bar.Set(pb.CleanOnFinish, true)
		bar.SetWriter(c.Stderr())
	}
	progress := func(genome string) {
		slog.Debug("determining taxonomy", "genome", genome)
		if bar != nil {
			bar.Increment()
		}
	}

	gt, nodes, err := clades.Name(t, genomes, domain, cut, progress)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	gt, nodes, err = clades.Fill(t, gt, nodes, ref)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(output, 0755); err != nil {
		return err
	}
	if err := writeGenomes(filepath.Join(output, "genome_taxonomy.tsv"), gt); err != nil {
		return err
	}
	if err := writeNodes(filepath.Join(output, "node_names.tsv"), nodes); err != nil {
		return err
	}
	slog.Info("done", "genomes", len(gt), "clades", len(nodes))
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

func readTaxonomy(name string) (clades.Taxonomy, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tax, err := clades.ReadTaxonomy(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return tax, nil
}

func writeGenomes(name string, gt []clades.GenomeTaxonomy) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := clades.WriteGenomes(f, gt); err != nil {
		return fmt.Errorf("while writing file %q: %v", name, err)
	}
	return nil
}

func writeNodes(name string, nodes []clades.NodeName) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := clades.WriteNodes(f, nodes); err != nil {
		return fmt.Errorf("while writing file %q: %v", name, err)
	}
	return nil
}
