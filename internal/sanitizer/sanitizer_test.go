package sanitizer

import (
	"errors"
	"testing"

	"catalog/consolidator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain text", input: "plain", want: "plain"},
		{name: "whitespace only", input: "   ", want: ""},
		{name: "single paragraph", input: "<p>Tasty</p>", want: "Tasty"},
		{name: "text between elements is dropped", input: "<b>A</b> and <i>B</i>", want: "A;B"},
		{name: "leading text is kept", input: "Fresh <b>daily</b>", want: "Fresh ;daily"},
		{name: "nested content is dropped", input: "<p>Outer<b>inner</b>tail</p>", want: "Outer"},
		{name: "element without text", input: "<br/><p>Salt</p>", want: "Salt"},
		{name: "entities are decoded", input: "<p>Fish &amp; Chips</p>", want: "Fish & Chips"},
		{name: "list items", input: "<ul><li>one</li></ul><p>two</p>", want: "two"},
		{name: "comment text is kept", input: "<!--note--><p>x</p>", want: "note;x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeValue(t *testing.T) {
	got, err := SanitizeValue(nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = SanitizeValue("<p>Tasty</p>")
	require.NoError(t, err)
	assert.Equal(t, "Tasty", got)
}

func TestSanitizeValueRejectsNonText(t *testing.T) {
	_, err := SanitizeValue(map[string]any{"en": "<p>x</p>"})
	require.Error(t, err)

	var sanitization *domain.SanitizationError
	require.True(t, errors.As(err, &sanitization))
	assert.Equal(t, "map[string]interface {}", sanitization.Kind)
}

func TestFragmentText(t *testing.T) {
	text := &html.Node{Type: html.TextNode, Data: "Fresh "}

	piece, ok, err := fragmentText(text, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Fresh ", piece)

	_, ok, err = fragmentText(text, false)
	require.NoError(t, err)
	assert.False(t, ok)

	element := &html.Node{Type: html.ElementNode, Data: "p"}
	element.AppendChild(&html.Node{Type: html.TextNode, Data: "Salt"})
	piece, ok, err = fragmentText(element, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Salt", piece)
}

func TestFragmentTextRejectsUnknownNodes(t *testing.T) {
	tests := []struct {
		node *html.Node
		kind string
	}{
		{node: &html.Node{Type: html.DoctypeNode, Data: "html"}, kind: "doctype"},
		{node: &html.Node{Type: html.RawNode, Data: "<x>"}, kind: "raw"},
		{node: &html.Node{Type: html.ErrorNode}, kind: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			_, _, err := fragmentText(tt.node, true)

			var sanitization *domain.SanitizationError
			require.True(t, errors.As(err, &sanitization))
			assert.Equal(t, tt.kind, sanitization.Kind)
		})
	}
}
