package locator

import (
	"strconv"
	"strings"
)

// Rectangle is an element's screen rectangle in device coordinates.
type Rectangle struct {
	X1 int `json:"x1" yaml:"x1"`
	Y1 int `json:"y1" yaml:"y1"`
	X2 int `json:"x2" yaml:"x2"`
	Y2 int `json:"y2" yaml:"y2"`
}

// Width returns X2 - X1.
func (r Rectangle) Width() int {
	return r.X2 - r.X1
}

// Height returns Y2 - Y1.
func (r Rectangle) Height() int {
	return r.Y2 - r.Y1
}

// Center returns the center point of the rectangle
func (r Rectangle) Center() (int, int) {
	return r.X1 + r.Width()/2, r.Y1 + r.Height()/2
}

// Contains checks if a point is within the rectangle
func (r Rectangle) Contains(x, y int) bool {
	return x >= r.X1 && x < r.X2 && y >= r.Y1 && y < r.Y2
}

// ExtractRectangle normalizes an element's positional attributes.
//
// Two shapes are understood: an Android style "bounds" attribute
// ("[x1,y1][x2,y2]") and iOS style discrete x, y, width and height.
// ok is false when neither shape is present or the values do not parse;
// callers treat that as "no coordinates", not as a failure.
func ExtractRectangle(attributes map[string]string) (rect Rectangle, ok bool) {
	if bounds := attributes["bounds"]; bounds != "" {
		return parseBounds(bounds)
	}
	if attributes["x"] != "" {
		return parseFrame(attributes)
	}
	return Rectangle{}, false
}

func parseBounds(s string) (Rectangle, bool) {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == '[' || r == ']' || r == ','
	})
	if len(tokens) < 4 {
		return Rectangle{}, false
	}

	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(strings.TrimSpace(tokens[i]))
		if err != nil {
			return Rectangle{}, false
		}
		v[i] = n
	}
	return Rectangle{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, true
}

func parseFrame(attributes map[string]string) (Rectangle, bool) {
	var v [4]int
	for i, key := range [4]string{"x", "y", "width", "height"} {
		n, err := strconv.Atoi(attributes[key])
		if err != nil {
			return Rectangle{}, false
		}
		v[i] = n
	}
	x, y, w, h := v[0], v[1], v[2], v[3]
	return Rectangle{X1: x, Y1: y, X2: x + w, Y2: y + h}, true
}
