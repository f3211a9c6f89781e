package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Source enumerates input units and loads the category tree each one holds.
type Source interface {
	Units(ctx context.Context) ([]Unit, error)
	Load(ctx context.Context, name string) (any, error)
}

// Unit is one input file or URL; it holds exactly one category tree.
type Unit struct {
	Name   string
	source Source
}

// Load reads the unit's tree from the source that listed it.
func (u Unit) Load(ctx context.Context) (any, error) {
	if u.source == nil {
		return nil, fmt.Errorf("unit %s has no source", u.Name)
	}
	return u.source.Load(ctx, u.Name)
}

// AllUnits lists the units of every source, in source order.
func AllUnits(ctx context.Context, sources ...Source) ([]Unit, error) {
	var units []Unit
	for _, src := range sources {
		listed, err := src.Units(ctx)
		if err != nil {
			return nil, err
		}
		units = append(units, listed...)
	}
	return units, nil
}

// Decode parses a single JSON document. Numbers are kept as json.Number so
// identifiers and prices survive a round trip unchanged.
func Decode(r io.Reader) (any, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var tree any
	if err := decoder.Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	var extra any
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to decode JSON: trailing data after document")
	}

	return tree, nil
}
