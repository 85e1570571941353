// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package rank_test

import (
	"errors"
	"testing"

	"github.com/js-arias/cladetax/rank"
)

func TestParse(t *testing.T) {
	tests := map[string]rank.Rank{
		"Species/Strain (0.95-1]": rank.Species,
		"Genus (0.82-0.95]":       rank.Genus,
		"Family (0.62-0.82]":      rank.Family,
		"Order (0.43-0.62]":       rank.Order,
		"Class (0.28-0.43]":       rank.Class,
		"Phylum (0-0.28]":         rank.Phylum,
		"genus":                   rank.Genus,
	}
	for label, want := range tests {
		got, err := rank.Parse(label)
		if err != nil {
			t.Errorf("parse %q: unexpected error: %v", label, err)
			continue
		}
		if got != want {
			t.Errorf("parse %q: got %v, want %v", label, got, want)
		}
	}

	if _, err := rank.Parse("kingdom (0-1]"); err == nil {
		t.Errorf("parse: expecting error on unknown label")
	} else {
		var le rank.UnrecognizedNoveltyLabelError
		if !errors.As(err, &le) {
			t.Errorf("parse: got error %v, want UnrecognizedNoveltyLabelError", err)
		}
	}
}

func TestLetter(t *testing.T) {
	want := []string{"p", "c", "o", "f", "g", "s"}
	for i, r := range rank.Ranks() {
		if l := r.Letter(); l != want[i] {
			t.Errorf("letter of %v: got %q, want %q", r, l, want[i])
		}
	}
}

func TestCutoffs(t *testing.T) {
	bac := rank.ForDomain("d__Bacteria")
	if v := bac[rank.Phylum]; v != 0.3280941769231098 {
		t.Errorf("bacteria phylum cutoff: got %v", v)
	}
	if v := bac[rank.Species]; v != 1 {
		t.Errorf("bacteria species cutoff: got %v, want 1", v)
	}

	arc := rank.ForDomain("d__Archaea")
	if v := arc[rank.Genus]; v != 0.9069458981600348 {
		t.Errorf("archaea genus cutoff: got %v", v)
	}
}

func TestParseCutoffs(t *testing.T) {
	c, err := rank.ParseCutoffs("0.1,0.2,0.3,0.4,0.5")
	if err != nil {
		t.Fatalf("parse cutoffs: unexpected error: %v", err)
	}
	if v := c[rank.Order]; v != 0.3 {
		t.Errorf("parse cutoffs: order cutoff got %v, want 0.3", v)
	}
	if v := c[rank.Species]; v != 1 {
		t.Errorf("parse cutoffs: species cutoff got %v, want 1", v)
	}

	fails := []string{
		"0.1,0.2,0.3,0.4",
		"0.1,0.2,0.3,0.4,0.5,0.6",
		"0.1,0.2,x,0.4,0.5",
		"0.1,0.2,1.3,0.4,0.5",
	}
	for _, s := range fails {
		if _, err := rank.ParseCutoffs(s); err == nil {
			t.Errorf("parse cutoffs %q: expecting error", s)
		}
	}
}
