// Package rewrite performs literal text substitution over project files.
package rewrite

import (
	"cmp"
	"slices"
	"strings"
)

// Rule replaces every literal occurrence of Old with New.
type Rule struct {
	Old string
	New string
}

// Rules is an ordered replacement map.
type Rules []Rule

// Noop reports whether applying the rule can never change any text.
func (r Rule) Noop() bool {
	return r.Old == r.New
}

// Valid reports whether both sides of the rule are set.
func (r Rule) Valid() bool {
	return r.Old != "" && r.New != ""
}

// Replacer builds a single-pass replacer for the rules. At any position the
// longest matching Old wins, and replaced text is never scanned again, so the
// result does not depend on the order of the rules.
func (rs Rules) Replacer() *strings.Replacer {
	sorted := slices.Clone(rs)
	slices.SortStableFunc(sorted, func(a, b Rule) int {
		return cmp.Compare(len(b.Old), len(a.Old))
	})

	pairs := make([]string, 0, 2*len(sorted))
	for _, r := range sorted {
		pairs = append(pairs, r.Old, r.New)
	}
	return strings.NewReplacer(pairs...)
}
