package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/maestro-inspector/pkg/inspector"
	"github.com/devicelab-dev/maestro-inspector/pkg/locator"
	"github.com/devicelab-dev/maestro-inspector/pkg/source"
)

// Output formats
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// printOutput writes v in the requested format.
func printOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (use json or yaml)", format)
	}
}

// elementView is the printed form of one element.
type elementView struct {
	Path       string             `json:"path" yaml:"path"`
	Tag        string             `json:"tag" yaml:"tag"`
	Attributes map[string]string  `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Rectangle  *locator.Rectangle `json:"rectangle,omitempty" yaml:"rectangle,omitempty"`
	Locators   []locator.Locator  `json:"locators" yaml:"locators"`
}

func newElementView(elem *source.Element, rect locator.Rectangle, hasRect bool, locs locator.Result) elementView {
	v := elementView{
		Path:       elem.Path,
		Tag:        elem.Tag,
		Attributes: elem.Attributes,
		Locators:   locs.Ordered(),
	}
	if v.Locators == nil {
		v.Locators = []locator.Locator{}
	}
	if hasRect {
		r := rect
		v.Rectangle = &r
	}
	return v
}

// viewElement derives everything about elem against doc.
func viewElement(doc *source.Document, elem *source.Element) elementView {
	rect, ok := locator.ExtractRectangle(elem.Attributes)
	return newElementView(elem, rect, ok, locator.DeriveLocators(elem.Attributes, doc))
}

func viewSelection(sel *inspector.Selection) elementView {
	return newElementView(sel.Element, sel.Rectangle, sel.HasRectangle, sel.Locators)
}

// treeLine is the compact per-element form used for tree listings.
type treeLine struct {
	Path     string `json:"path" yaml:"path"`
	Tag      string `json:"tag" yaml:"tag"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	Locators int    `json:"locators" yaml:"locators"`
}

func viewTree(doc *source.Document) []treeLine {
	lines := make([]treeLine, 0, len(doc.Elements()))
	for _, elem := range doc.Elements() {
		lines = append(lines, treeLine{
			Path:     elem.Path,
			Tag:      elem.Tag,
			Text:     elem.Attr("text"),
			Locators: len(locator.DeriveLocators(elem.Attributes, doc)),
		})
	}
	return lines
}
