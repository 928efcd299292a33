// Package actions holds the catalog of remote commands the inspector can run
// against an automation server.
package actions

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/maestro-inspector/pkg/core"
)

//go:embed actions.yaml
var defaultCatalog []byte

// ArgType is the declared type of an action argument.
type ArgType string

// Argument types
const (
	ArgString  ArgType = "string"
	ArgNumber  ArgType = "number"
	ArgBoolean ArgType = "boolean"
)

// Arg is one ordered action parameter.
type Arg struct {
	Name string  `yaml:"name" json:"name"`
	Type ArgType `yaml:"type" json:"type"`
}

// Action is a single remote command.
type Action struct {
	Name    string `yaml:"name" json:"name"`
	Method  string `yaml:"method" json:"method"`
	Args    []Arg  `yaml:"args,omitempty" json:"args,omitempty"`
	Refresh bool   `yaml:"refresh,omitempty" json:"refresh,omitempty"` // re-fetch page source after running
}

// Group is a named set of related actions.
type Group struct {
	Name    string   `yaml:"name" json:"name"`
	Actions []Action `yaml:"actions" json:"actions"`
}

// Category is the top level of the catalog (Device, Session, Web, Context).
type Category struct {
	Name   string  `yaml:"category" json:"category"`
	Groups []Group `yaml:"groups" json:"groups"`
}

// Catalog is the ordered action table.
type Catalog struct {
	Categories []Category
	byMethod   map[string]*Action
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided catalog file
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var categories []Category
	if err := yaml.Unmarshal(data, &categories); err != nil {
		return nil, core.ErrInvalidConfig.WithMessage("invalid action catalog").WithCause(err)
	}

	c := &Catalog{Categories: categories, byMethod: make(map[string]*Action)}
	for ci := range c.Categories {
		cat := &c.Categories[ci]
		for gi := range cat.Groups {
			group := &cat.Groups[gi]
			for ai := range group.Actions {
				action := &group.Actions[ai]
				if err := validate(action); err != nil {
					return nil, core.ErrInvalidConfig.
						WithMessage(fmt.Sprintf("action %s/%s/%s", cat.Name, group.Name, action.Name)).
						WithCause(err)
				}
				if _, dup := c.byMethod[action.Method]; !dup {
					c.byMethod[action.Method] = action
				}
			}
		}
	}
	return c, nil
}

func validate(a *Action) error {
	if a.Name == "" {
		return fmt.Errorf("missing name")
	}
	if a.Method == "" {
		return fmt.Errorf("missing method")
	}
	for _, arg := range a.Args {
		if arg.Name == "" {
			return fmt.Errorf("argument without name")
		}
		switch arg.Type {
		case ArgString, ArgNumber, ArgBoolean:
		default:
			return fmt.Errorf("argument %s: unknown type %q", arg.Name, arg.Type)
		}
	}
	return nil
}

// Lookup finds an action by category, group and action name.
func (c *Catalog) Lookup(category, group, name string) (*Action, bool) {
	for ci := range c.Categories {
		cat := &c.Categories[ci]
		if !strings.EqualFold(cat.Name, category) {
			continue
		}
		for gi := range cat.Groups {
			g := &cat.Groups[gi]
			if !strings.EqualFold(g.Name, group) {
				continue
			}
			for ai := range g.Actions {
				if strings.EqualFold(g.Actions[ai].Name, name) {
					return &g.Actions[ai], true
				}
			}
		}
	}
	return nil, false
}

// ByMethod finds an action by its client method name.
func (c *Catalog) ByMethod(method string) (*Action, bool) {
	a, ok := c.byMethod[method]
	return a, ok
}

// Resolve accepts either a method name ("getOrientation") or a
// "Category/Group/Action" path.
func (c *Catalog) Resolve(ref string) (*Action, error) {
	if a, ok := c.ByMethod(ref); ok {
		return a, nil
	}
	if parts := strings.Split(ref, "/"); len(parts) == 3 {
		if a, ok := c.Lookup(parts[0], parts[1], parts[2]); ok {
			return a, nil
		}
	}
	return nil, core.ErrUnknownAction.WithDetails(map[string]interface{}{"action": ref})
}

// Methods returns every method name in catalog order.
func (c *Catalog) Methods() []string {
	var out []string
	for _, cat := range c.Categories {
		for _, g := range cat.Groups {
			for _, a := range g.Actions {
				out = append(out, a.Method)
			}
		}
	}
	return out
}

// Coerce converts raw string arguments to the declared types. Missing or
// empty trailing arguments become nil so they are omitted on the wire.
func (a *Action) Coerce(raw []string) ([]interface{}, error) {
	if len(raw) > len(a.Args) {
		return nil, core.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("%s takes %d arguments, got %d", a.Method, len(a.Args), len(raw)))
	}

	out := make([]interface{}, len(a.Args))
	for i, arg := range a.Args {
		if i >= len(raw) || raw[i] == "" {
			continue
		}
		v, err := coerce(arg.Type, raw[i])
		if err != nil {
			return nil, core.ErrInvalidArgument.
				WithMessage(fmt.Sprintf("%s: argument %s", a.Method, arg.Name)).
				WithCause(err)
		}
		out[i] = v
	}
	return out, nil
}

func coerce(t ArgType, s string) (interface{}, error) {
	switch t {
	case ArgNumber:
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	case ArgBoolean:
		return strconv.ParseBool(strings.TrimSpace(s))
	default:
		return s, nil
	}
}
