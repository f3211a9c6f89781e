package flatten

import (
	"testing"

	"catalog/consolidator/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestRecordExpandsNestedObjects(t *testing.T) {
	got := Record(domain.Record{
		"a": 1,
		"b": map[string]any{
			"c": 2,
			"d": map[string]any{"e": 3},
		},
	})

	assert.Equal(t, domain.Record{"a": 1, "b_c": 2, "b_d_e": 3}, got)
}

func TestRecordIsIdentityWithoutNestedObjects(t *testing.T) {
	record := domain.Record{
		"id":               "P1",
		"shortDescription": "Tasty",
		"price":            nil,
		"tags":             []any{"a", map[string]any{"x": 1}},
	}

	assert.Equal(t, record, Record(record))
}

func TestRecordKeepsListsOpaque(t *testing.T) {
	images := []any{map[string]any{"url": "a.png"}, map[string]any{"url": "b.png"}}
	got := Record(domain.Record{"media": map[string]any{"images": images}})

	assert.Equal(t, domain.Record{"media_images": images}, got)
}

func TestRecordDropsEmptyObjects(t *testing.T) {
	got := Record(domain.Record{"id": "P1", "attributes": map[string]any{}})
	assert.Equal(t, domain.Record{"id": "P1"}, got)
}

func TestWithPrefix(t *testing.T) {
	got := WithPrefix(map[string]any{"k": "v", "n": map[string]any{"m": true}}, "root_")
	assert.Equal(t, domain.Record{"root_k": "v", "root_n_m": true}, got)
}

func TestRecordsDoesNotMutateInput(t *testing.T) {
	nested := map[string]any{"amount": 1.5}
	input := []domain.Record{{"id": "P1", "price": nested}, {"id": "P2", "price": nil}}

	got := Records(input)

	assert.Equal(t, []domain.Record{
		{"id": "P1", "price_amount": 1.5},
		{"id": "P2", "price": nil},
	}, got)
	assert.Equal(t, nested, input[0]["price"])
}

func TestRecordKeyCollisionIsDeterministic(t *testing.T) {
	record := domain.Record{
		"a":   map[string]any{"b": "nested"},
		"a_b": "flat",
	}

	for range 50 {
		assert.Equal(t, domain.Record{"a_b": "flat"}, Record(record))
	}
}
