// Package source parses page source XML into an immutable UI tree snapshot.
package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// DocumentParseError is returned when page source markup cannot be parsed.
type DocumentParseError struct {
	Reason string
	Err    error
}

// Error implements the error interface
func (e *DocumentParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid page source: %s: %v", e.Reason, e.Err)
	}
	return "invalid page source: " + e.Reason
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DocumentParseError) Unwrap() error {
	return e.Err
}

// Element is one node of the UI tree.
type Element struct {
	Path       string            `json:"path" yaml:"path"` // dotted child indexes from the root, e.g. "0.1.3"
	Tag        string            `json:"tag" yaml:"tag"`
	Attributes map[string]string `json:"attributes" yaml:"attributes"`
	Depth      int               `json:"depth" yaml:"depth"`
	Parent     *Element          `json:"-" yaml:"-"`
	Children   []*Element        `json:"-" yaml:"-"`
}

// Attr returns the attribute value, or "" if absent.
func (e *Element) Attr(name string) string {
	return e.Attributes[name]
}

// Document is a parsed page source snapshot. It is never mutated after Parse,
// so one *Document can be shared freely between goroutines.
type Document struct {
	raw      string
	root     *xmlquery.Node
	elements []*Element
	byNode   map[*xmlquery.Node]*Element
	byPath   map[string]*Element
}

// Parse parses page source XML into a Document.
func Parse(xmlData string) (*Document, error) {
	if strings.TrimSpace(xmlData) == "" {
		return nil, &DocumentParseError{Reason: "empty document"}
	}

	root, err := xmlquery.Parse(strings.NewReader(xmlData))
	if err != nil {
		return nil, &DocumentParseError{Reason: "malformed markup", Err: err}
	}

	doc := &Document{
		raw:    xmlData,
		root:   root,
		byNode: make(map[*xmlquery.Node]*Element),
		byPath: make(map[string]*Element),
	}

	idx := 0
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		doc.walk(n, nil, strconv.Itoa(idx), 0)
		idx++
	}

	if len(doc.elements) == 0 {
		return nil, &DocumentParseError{Reason: "no root element found"}
	}

	return doc, nil
}

func (d *Document) walk(n *xmlquery.Node, parent *Element, path string, depth int) *Element {
	elem := &Element{
		Path:       path,
		Tag:        qualifiedName(n.Prefix, n.Data),
		Attributes: make(map[string]string, len(n.Attr)),
		Depth:      depth,
		Parent:     parent,
	}
	for _, attr := range n.Attr {
		elem.Attributes[qualifiedName(attr.Name.Space, attr.Name.Local)] = attr.Value
	}

	d.elements = append(d.elements, elem)
	d.byNode[n] = elem
	d.byPath[path] = elem

	idx := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		child := d.walk(c, elem, path+"."+strconv.Itoa(idx), depth+1)
		elem.Children = append(elem.Children, child)
		idx++
	}
	return elem
}

func qualifiedName(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// Raw returns the page source exactly as it was parsed.
func (d *Document) Raw() string {
	return d.raw
}

// Elements returns every element in document order.
func (d *Document) Elements() []*Element {
	return d.elements
}

// Root returns the first top-level element.
func (d *Document) Root() *Element {
	return d.elements[0]
}

// FindByPath returns the element at the given dotted path, or nil.
func (d *Document) FindByPath(path string) *Element {
	return d.byPath[path]
}

// Count evaluates a compiled XPath expression and returns the number of
// nodes it selects. Expressions that evaluate to a number (count()) are
// returned as that number.
func (d *Document) Count(expr *xpath.Expr) int {
	switch v := expr.Evaluate(xmlquery.CreateXPathNavigator(d.root)).(type) {
	case float64:
		return int(v)
	case *xpath.NodeIterator:
		n := 0
		for v.MoveNext() {
			n++
		}
		return n
	default:
		return 0
	}
}

// Select returns the elements selected by a compiled XPath expression,
// in document order. Non-element nodes are skipped.
func (d *Document) Select(expr *xpath.Expr) []*Element {
	var result []*Element
	for _, n := range xmlquery.QuerySelectorAll(d.root, expr) {
		if elem, ok := d.byNode[n]; ok {
			result = append(result, elem)
		}
	}
	return result
}
