// Package schema compares the columns a driver reads from its catalog
// with the columns the audit store expects.
package schema

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrMismatch is returned when a table is missing or differs from its
// expected shape.
var ErrMismatch = errors.New("schema mismatch")

// Column is one column as the database reports it. Type is lower case.
type Column struct {
	Type     string
	Nullable bool
}

// Table maps column names to their expected shape.
type Table map[string]Column

// Diff compares actual against want and lists every problem found.
// A nil actual means the table does not exist. Extra columns are allowed.
func Diff(name string, want, actual Table) error {
	if actual == nil {
		return fmt.Errorf("%w: table %s does not exist", ErrMismatch, name)
	}

	var problems []string
	for _, col := range slices.Sorted(maps.Keys(want)) {
		w := want[col]
		a, ok := actual[col]
		switch {
		case !ok:
			problems = append(problems, col+": missing")
		case a.Type != w.Type:
			problems = append(problems, fmt.Sprintf("%s: type %s, want %s", col, a.Type, w.Type))
		case a.Nullable != w.Nullable:
			problems = append(problems, fmt.Sprintf("%s: nullable=%t, want %t", col, a.Nullable, w.Nullable))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: table %s: %s", ErrMismatch, name, strings.Join(problems, "; "))
	}
	return nil
}
