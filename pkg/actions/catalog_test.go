package actions

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/devicelab-dev/maestro-inspector/pkg/core"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	var names []string
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	want := []string{"Device", "Session", "Web", "Context"}
	if len(names) != len(want) {
		t.Fatalf("categories = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("category %d = %s, want %s", i, names[i], want[i])
		}
	}

	if got := len(c.Methods()); got != 64 {
		t.Errorf("Expected 64 actions, got %d", got)
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	a, ok := c.Lookup("Device", "App", "Install App")
	if !ok {
		t.Fatal("Install App not found")
	}
	if a.Method != "installApp" {
		t.Errorf("Method = %s, want installApp", a.Method)
	}
	if len(a.Args) != 1 || a.Args[0].Name != "appPathOrUrl" || a.Args[0].Type != ArgString {
		t.Errorf("Unexpected args: %+v", a.Args)
	}
	if a.Refresh {
		t.Error("installApp should not refresh")
	}

	a, ok = c.Lookup("web", "navigation", "go to url")
	if !ok {
		t.Fatal("Lookup should be case-insensitive")
	}
	if !a.Refresh {
		t.Error("navigateTo should refresh")
	}

	if _, ok := c.Lookup("Device", "App", "Fly"); ok {
		t.Error("Expected missing action")
	}
}

func TestCatalog_Resolve(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	a, err := c.Resolve("rotateDevice")
	if err != nil {
		t.Fatalf("Resolve by method failed: %v", err)
	}
	if len(a.Args) != 6 || !a.Refresh {
		t.Errorf("Unexpected rotateDevice: %+v", a)
	}

	a, err = c.Resolve("Context/Window (W3C)/New Window")
	if err != nil {
		t.Fatalf("Resolve by path failed: %v", err)
	}
	if a.Method != "createWindow" {
		t.Errorf("Method = %s, want createWindow", a.Method)
	}

	_, err = c.Resolve("doABarrelRoll")
	if !errors.Is(err, core.ErrUnknownAction) {
		t.Errorf("Expected ErrUnknownAction, got %v", err)
	}
}

func TestAction_Coerce(t *testing.T) {
	a := &Action{
		Method: "setGeoLocation",
		Args: []Arg{
			{Name: "latitude", Type: ArgNumber},
			{Name: "longitude", Type: ArgNumber},
			{Name: "label", Type: ArgString},
			{Name: "enabled", Type: ArgBoolean},
		},
	}

	got, err := a.Coerce([]string{"52.5", " 13 ", "home", "true"})
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if got[0] != 52.5 || got[1] != 13.0 || got[2] != "home" || got[3] != true {
		t.Errorf("Unexpected values: %#v", got)
	}

	got, err = a.Coerce([]string{"1"})
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if len(got) != 4 || got[1] != nil || got[3] != nil {
		t.Errorf("Missing args should be nil: %#v", got)
	}
}

func TestAction_CoerceErrors(t *testing.T) {
	a := &Action{Method: "lock", Args: []Arg{{Name: "seconds", Type: ArgNumber}}}

	if _, err := a.Coerce([]string{"soon"}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
	if _, err := a.Coerce([]string{"1", "2"}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for extra args, got %v", err)
	}

	b := &Action{Method: "touchId", Args: []Arg{{Name: "shouldMatch", Type: ArgBoolean}}}
	if _, err := b.Coerce([]string{"maybe"}); err == nil {
		t.Error("Expected error for invalid boolean")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "- category: [unclosed"},
		{"missing method", "- category: X\n  groups:\n    - name: G\n      actions:\n        - name: A\n"},
		{"bad arg type", "- category: X\n  groups:\n    - name: G\n      actions:\n        - name: A\n          method: m\n          args:\n            - {name: n, type: date}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actions.yaml")
	content := `
- category: Custom
  groups:
    - name: Demo
      actions:
        - name: Ping
          method: getSession
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := c.ByMethod("getSession"); !ok {
		t.Error("getSession not found")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
