package walker

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"catalog/consolidator/internal/domain"
	"catalog/consolidator/internal/sanitizer"

	log "github.com/sirupsen/logrus"
)

// Kind tells container nodes apart from product nodes.
type Kind int

const (
	KindContainer Kind = iota
	KindProduct
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindProduct:
		return "product"
	default:
		return "unknown"
	}
}

// Node is a classified tree node.
type Node struct {
	Kind   Kind
	Fields map[string]any
}

// Classify inspects a raw value. Objects carrying an id are products and are
// never descended into; every other object is a container. Anything that is
// not an object matches neither shape.
func Classify(value any, path []string) (Node, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return Node{}, &domain.StructuralError{
			Path:   path,
			Reason: fmt.Sprintf("expected an object, found %s", describe(value)),
		}
	}

	if _, ok := fields[domain.FieldID]; ok {
		return Node{Kind: KindProduct, Fields: fields}, nil
	}

	return Node{Kind: KindContainer, Fields: fields}, nil
}

// RootCategory derives the category identifier from the single top-level key of a tree.
func RootCategory(root any) (domain.CategoryID, error) {
	node, err := Classify(root, nil)
	if err != nil {
		return "", err
	}

	if node.Kind == KindProduct {
		return "", &domain.StructuralError{Reason: "product found at root, no category to inherit"}
	}

	if len(node.Fields) != 1 {
		return "", &domain.StructuralError{
			Reason: fmt.Sprintf("expected exactly one top-level key, found %d", len(node.Fields)),
		}
	}

	for key := range node.Fields {
		if key == "" {
			return "", &domain.StructuralError{Reason: "top-level key is empty"}
		}
		return domain.CategoryID(key), nil
	}

	return "", nil
}

// WalkTree collects every product of an input tree, tagged with the category
// named by the tree's single top-level key.
func WalkTree(root any) ([]domain.Record, error) {
	categoryID, err := RootCategory(root)
	if err != nil {
		return nil, err
	}

	return Walk(root, categoryID)
}

// Walk traverses node depth-first and returns the products beneath it in
// natural key order. A product node yields exactly one record.
func Walk(node any, categoryID domain.CategoryID) ([]domain.Record, error) {
	if categoryID == "" {
		return nil, &domain.StructuralError{Reason: "no category identifier to inherit"}
	}

	return walk(node, categoryID, nil, nil)
}

func walk(value any, categoryID domain.CategoryID, path []string, results []domain.Record) ([]domain.Record, error) {
	node, err := Classify(value, path)
	if err != nil {
		return nil, err
	}

	if node.Kind == KindProduct {
		record, err := Product(node.Fields, categoryID)
		if err != nil {
			return nil, err
		}
		return append(results, record), nil
	}

	for _, key := range childKeys(node.Fields) {
		childPath := append(slices.Clip(path), key)
		results, err = walk(node.Fields[key], categoryID, childPath, results)
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Product builds a record from a product node: a copy of its fields with
// category_id set and shortDescription reduced to plain text.
func Product(fields map[string]any, categoryID domain.CategoryID) (domain.Record, error) {
	record := make(domain.Record, len(fields)+1)
	for k, v := range fields {
		record[k] = v
	}
	record[domain.FieldCategoryID] = categoryID.String()

	log.Debugf("Before: %v", fields[domain.FieldShortDescription])
	description, err := sanitizer.SanitizeValue(fields[domain.FieldShortDescription])
	if err != nil {
		return nil, fmt.Errorf("failed to sanitize %s of product %v: %w",
			domain.FieldShortDescription, fields[domain.FieldID], err)
	}
	log.Debugf(" After: %s", description)

	record[domain.FieldShortDescription] = description
	return record, nil
}

// childKeys orders keys naturally so that page indices come out as 1, 2, 10.
func childKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b string) int {
		na, errA := strconv.ParseUint(a, 10, 64)
		nb, errB := strconv.ParseUint(b, 10, 64)
		switch {
		case errA == nil && errB == nil:
			if c := cmp.Compare(na, nb); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		default:
			return cmp.Compare(a, b)
		}
	})

	return keys
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", value)
	}
}
