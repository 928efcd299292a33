package locator

import (
	"strings"
	"unicode"

	"github.com/antchfx/xpath"

	"github.com/devicelab-dev/maestro-inspector/pkg/source"
)

// IsUnique reports whether fewer than two nodes of doc carry
// attrName="attrValue". A nil doc means no snapshot was fetched yet, and
// every value is treated as unique.
//
// Uniqueness holds for one snapshot only; re-derive on every refresh.
func IsUnique(attrName, attrValue string, doc *source.Document) bool {
	if doc == nil {
		return true
	}
	if !isXMLName(attrName) {
		// No node can carry an attribute with this name.
		return true
	}

	expr, err := xpath.Compile("count(" + attributeQuery(attrName, attrValue) + ")")
	if err != nil {
		return true
	}
	return doc.Count(expr) < 2
}

// attributeQuery builds //*[@name=literal]. name must already be a valid XML name.
func attributeQuery(name, value string) string {
	return "//*[@" + name + "=" + xpathLiteral(value) + "]"
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so a value holding both quote kinds is built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}

	parts := strings.Split(s, `"`)
	var b strings.Builder
	b.WriteString("concat(")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(`, '"', `)
		}
		b.WriteString(`"` + part + `"`)
	}
	b.WriteString(")")
	return b.String()
}

// isXMLName reports whether s is a (possibly prefixed) XML name, so it can be
// spliced into a query as @s without changing the query's structure.
func isXMLName(s string) bool {
	prefix, local, found := strings.Cut(s, ":")
	if !found {
		return isNCName(s)
	}
	return isNCName(prefix) && isNCName(local)
}

func isNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}
