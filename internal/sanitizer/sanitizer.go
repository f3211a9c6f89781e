package sanitizer

import (
	"fmt"
	"strings"

	"catalog/consolidator/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Separator joins the text pieces extracted from consecutive fragments.
const Separator = ";"

// SanitizeValue strips markup from a raw field value. A missing or null value
// yields an empty string; anything that is not a string is rejected.
func SanitizeValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return Sanitize(v)
	default:
		kind := fmt.Sprintf("%T", value)
		log.WithField("kind", kind).Error("Unsupported markup value")
		return "", &domain.SanitizationError{Kind: kind}
	}
}

// Sanitize parses text as a sequence of markup fragments and keeps, in order:
// the leading bare text, if any, and the immediate text of every top-level
// element. Text trailing an element and content nested below the first level
// are dropped.
func Sanitize(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + text + "</body></html>"))
	if err != nil {
		return "", fmt.Errorf("failed to parse markup: %w", err)
	}

	var (
		pieces      []string
		fragmentErr error
		leading     = true
	)

	doc.Find("body").First().Contents().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		node := s.Get(0)
		piece, ok, err := fragmentText(node, leading)
		if err != nil {
			fragmentErr = err
			return false
		}
		leading = leading && node.Type == html.TextNode
		if ok {
			pieces = append(pieces, piece)
		}
		return true
	})

	if fragmentErr != nil {
		return "", fragmentErr
	}

	return strings.Join(pieces, Separator), nil
}

// fragmentText extracts the text one top-level fragment contributes. Bare text
// only counts while no element or comment has been seen yet.
func fragmentText(node *html.Node, leading bool) (string, bool, error) {
	switch node.Type {
	case html.TextNode:
		if leading && strings.TrimSpace(node.Data) != "" {
			return node.Data, true, nil
		}
		return "", false, nil
	case html.ElementNode:
		if node.FirstChild != nil && node.FirstChild.Type == html.TextNode {
			return node.FirstChild.Data, true, nil
		}
		return "", false, nil
	case html.CommentNode:
		return node.Data, true, nil
	default:
		kind := nodeKind(node.Type)
		log.WithField("kind", kind).Error("Unsupported markup fragment")
		return "", false, &domain.SanitizationError{Kind: kind}
	}
}

func nodeKind(t html.NodeType) string {
	switch t {
	case html.ErrorNode:
		return "error"
	case html.DocumentNode:
		return "document"
	case html.DoctypeNode:
		return "doctype"
	case html.RawNode:
		return "raw"
	default:
		return fmt.Sprintf("node(%d)", t)
	}
}
