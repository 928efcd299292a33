package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/maestro-inspector/pkg/core"
	"github.com/devicelab-dev/maestro-inspector/pkg/locator"
	"github.com/devicelab-dev/maestro-inspector/pkg/source"
)

var locatorsCommand = &cli.Command{
	Name:  "locators",
	Usage: "Derive unique locators from a saved page source",
	Description: `Parse a page source XML file and print the locators that uniquely
identify an element. Without --path or --at every element is listed with
the number of unique locators it has.

Examples:
  maestro-inspector locators --source page.xml
  maestro-inspector locators --source page.xml --path 0.0.1
  maestro-inspector locators --source page.xml --at 540,1200
  maestro-inspector -f yaml locators --source page.xml --all`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Aliases:  []string{"s"},
			Usage:    "Page source XML file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: "Element index path (e.g. 0.0.1)",
		},
		&cli.StringFlag{
			Name:  "at",
			Usage: "Screen point x,y; selects the deepest element containing it",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Print attributes, rectangle and locators for every element",
		},
	},
	Action: runLocators,
}

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "List elements matched by a locator",
	ArgsUsage: "<strategy> <value>",
	Description: `Test a locator against the current UI tree. Strategies: objectName,
text, className and xpath. With --source the search runs offline against a
saved page source; otherwise the live session is queried.

Examples:
  maestro-inspector search text Login --source page.xml
  maestro-inspector search xpath "//QQuickButton"`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Page source XML file (default: fetch from the session)",
		},
	},
	Action: runSearch,
}

func readDocument(path string) (*source.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return source.Parse(string(data))
}

func runLocators(c *cli.Context) error {
	doc, err := readDocument(c.String("source"))
	if err != nil {
		return err
	}
	format := c.String("format")
	out := c.App.Writer

	switch {
	case c.String("path") != "":
		elem := doc.FindByPath(c.String("path"))
		if elem == nil {
			return core.ErrElementNotFound.WithDetails(map[string]interface{}{"path": c.String("path")})
		}
		return printOutput(out, format, viewElement(doc, elem))

	case c.String("at") != "":
		x, y, err := parsePoint(c.String("at"))
		if err != nil {
			return err
		}
		elem := elementAt(doc, x, y)
		if elem == nil {
			return core.ErrElementNotFound.WithDetails(map[string]interface{}{"x": x, "y": y})
		}
		return printOutput(out, format, viewElement(doc, elem))

	case c.Bool("all"):
		views := make([]elementView, 0, len(doc.Elements()))
		for _, elem := range doc.Elements() {
			views = append(views, viewElement(doc, elem))
		}
		return printOutput(out, format, views)

	default:
		return printOutput(out, format, viewTree(doc))
	}
}

// elementAt mirrors inspector.Session.SelectAt for offline documents.
func elementAt(doc *source.Document, x, y int) *source.Element {
	var hit *source.Element
	for _, elem := range doc.Elements() {
		rect, ok := locator.ExtractRectangle(elem.Attributes)
		if !ok || !rect.Contains(x, y) {
			continue
		}
		if hit == nil || elem.Depth >= hit.Depth {
			hit = elem
		}
	}
	return hit
}

func runSearch(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("search takes <strategy> <value>")
	}
	strategy, value := c.Args().Get(0), c.Args().Get(1)

	var (
		found []*source.Element
		doc   *source.Document
	)
	if path := c.String("source"); path != "" {
		var err error
		if doc, err = readDocument(path); err != nil {
			return err
		}
		if found, err = locator.Find(doc, strategy, value); err != nil {
			return core.ErrInvalidArgument.WithCause(err)
		}
	} else {
		err := withSession(c, func(env *sessionEnv) error {
			if err := env.session.Refresh(); err != nil {
				return err
			}
			doc = env.session.Snapshot().Document
			var err error
			found, err = env.session.Search(strategy, value)
			return err
		})
		if err != nil {
			return err
		}
	}

	views := make([]elementView, 0, len(found))
	for _, elem := range found {
		views = append(views, viewElement(doc, elem))
	}
	return printOutput(c.App.Writer, c.String("format"), views)
}

// parsePoint parses "x,y".
func parsePoint(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid point %q (want x,y)", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return x, y, nil
}
