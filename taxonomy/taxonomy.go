// Package taxonomy resolves taxon names to their lineage.
package taxonomy

import (
	"errors"
	"fmt"
)

// ErrTaxonNotFound is returned when a name is not known to a resolver.
var ErrTaxonNotFound = errors.New("taxon not found")

// Taxon is one node of a lineage.
type Taxon struct {
	TaxID int
	Rank  string
	Name  string
}

// Resolver returns the lineage of a scientific name, ordered from the root
// to the named taxon itself.
type Resolver interface {
	Lineage(name string) ([]Taxon, error)
}

// Static is a fixed name -> lineage table.
type Static map[string][]Taxon

func (s Static) Lineage(name string) ([]Taxon, error) {
	lineage, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrTaxonNotFound)
	}
	return lineage, nil
}
