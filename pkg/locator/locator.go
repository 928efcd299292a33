// Package locator derives locator strategies that uniquely identify an
// element within a page source snapshot.
package locator

import (
	"fmt"

	"github.com/antchfx/xpath"

	"github.com/devicelab-dev/maestro-inspector/pkg/source"
)

// Strategy maps an element attribute to the locator strategy that uses it.
type Strategy struct {
	Attribute string // attribute read from the element
	Name      string // strategy tag sent to the automation server
	Label     string // display name
}

// Strategies is the ordered table of candidate strategies. Adding a strategy
// means appending a row; uniqueness checking does not change.
var Strategies = []Strategy{
	{Attribute: "objectName", Name: "objectName", Label: "Object Name"},
	{Attribute: "text", Name: "text", Label: "Text"},
	{Attribute: "className", Name: "className", Label: "Class Name"},
}

// XPath is the raw XPath strategy accepted by Find.
const XPath = "xpath"

// Locator is one strategy/value pair.
type Locator struct {
	Strategy string `json:"strategy" yaml:"strategy"`
	Value    string `json:"value" yaml:"value"`
}

// Result maps strategy tag to the value that uniquely identifies an element.
type Result map[string]string

// Ordered returns the locators in strategy table order.
func (r Result) Ordered() []Locator {
	var out []Locator
	for _, s := range Strategies {
		if v, ok := r[s.Name]; ok {
			out = append(out, Locator{Strategy: s.Name, Value: v})
		}
	}
	return out
}

// Best returns the first locator in strategy table order.
func (r Result) Best() (Locator, bool) {
	ordered := r.Ordered()
	if len(ordered) == 0 {
		return Locator{}, false
	}
	return ordered[0], true
}

// DeriveLocators returns every strategy whose attribute is present on the
// element and unique within doc. An empty result is a normal outcome.
func DeriveLocators(attributes map[string]string, doc *source.Document) Result {
	res := Result{}
	for _, s := range Strategies {
		value := attributes[s.Attribute]
		if value != "" && IsUnique(s.Attribute, value, doc) {
			res[s.Name] = value
		}
	}
	return res
}

// LookupStrategy returns the table row for a strategy tag.
func LookupStrategy(name string) (Strategy, bool) {
	for _, s := range Strategies {
		if s.Name == name {
			return s, true
		}
	}
	return Strategy{}, false
}

// Find returns the elements of doc matched by a strategy/value pair. Table
// strategies match the attribute exactly; XPath evaluates value as is.
func Find(doc *source.Document, strategy, value string) ([]*source.Element, error) {
	if doc == nil {
		return nil, fmt.Errorf("no page source loaded")
	}

	var query string
	if strategy == XPath {
		query = value
	} else {
		s, ok := LookupStrategy(strategy)
		if !ok {
			return nil, fmt.Errorf("unknown locator strategy: %s", strategy)
		}
		query = attributeQuery(s.Attribute, value)
	}

	expr, err := xpath.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", query, err)
	}
	return doc.Select(expr), nil
}
