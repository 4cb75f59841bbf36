package integration

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/abelzeko/reservoir-scraper/internal/entities"
)

// DocumentRootTag is reported as the parent of text sitting directly under the document
const DocumentRootTag = "[document]"

// TextNode is a piece of rendered text together with the tag of its parent element
type TextNode struct {
	Text      string
	ParentTag string
}

// ParseTextNodes parses an HTML page and returns its text nodes in document order
func ParseTextNodes(r io.Reader) ([]TextNode, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse the webpage: %w", entities.ErrParse, err)
	}
	return DocumentTextNodes(doc), nil
}

// DocumentTextNodes walks an already parsed document.
// goquery's Contents() groups children by parent, so the tree is walked
// directly to keep the order in which text is rendered.
func DocumentTextNodes(doc *goquery.Document) []TextNode {
	var nodes []TextNode
	for _, root := range doc.Nodes {
		collectTextNodes(root, &nodes)
	}
	return nodes
}

func collectTextNodes(n *html.Node, out *[]TextNode) {
	if n.Type == html.TextNode {
		*out = append(*out, TextNode{Text: n.Data, ParentTag: parentTag(n)})
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectTextNodes(c, out)
	}
}

func parentTag(n *html.Node) string {
	if n.Parent == nil || n.Parent.Type == html.DocumentNode {
		return DocumentRootTag
	}
	return n.Parent.Data
}
