// Package mock provides an in-memory backend for testing without a device or
// automation server.
package mock

import (
	"fmt"
	"sync"
	"time"

	"github.com/devicelab-dev/maestro-inspector/pkg/core"
	"github.com/devicelab-dev/maestro-inspector/pkg/locator"
	"github.com/devicelab-dev/maestro-inspector/pkg/source"
)

// DefaultSource is served when Config.Source is empty.
const DefaultSource = `<?xml version="1.0" encoding="UTF-8"?>
<hierarchy>
  <QQuickWindow objectName="root" className="QQuickWindow" x="0" y="0" width="1080" height="2400">
    <QQuickButton objectName="mockButton" text="Mock Element" className="Button" x="100" y="200" width="200" height="50"/>
  </QQuickWindow>
</hierarchy>`

// Call is one recorded backend invocation.
type Call struct {
	Method string
	Args   []interface{}
}

// Driver is an in-memory backend.
type Driver struct {
	// Configuration
	Config Config

	mu     sync.Mutex
	source string
	calls  []Call
}

// Config configures mock driver behavior.
type Config struct {
	// Source is the page source served by Source(). Empty means DefaultSource.
	Source string
	// Errors makes the named call fail ("Source", "Ping", "Screenshot", a
	// catalog method, ...).
	Errors map[string]error
	// Results are returned by Execute for the named catalog method.
	Results map[string]interface{}
	// Delay adds artificial latency per call
	Delay time.Duration
}

// New creates a new mock driver.
func New(cfg Config) *Driver {
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	return &Driver{Config: cfg, source: cfg.Source}
}

// SetSource replaces the page source served from now on.
func (d *Driver) SetSource(xmlData string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.source = xmlData
}

// Calls returns a copy of every recorded invocation in order.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// CallCount returns how many times method was invoked.
func (d *Driver) CallCount(method string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (d *Driver) record(method string, args ...interface{}) error {
	if d.Config.Delay > 0 {
		time.Sleep(d.Config.Delay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Method: method, Args: args})
	return d.Config.Errors[method]
}

// Ping simulates a session keep-alive.
func (d *Driver) Ping() error {
	return d.record("Ping")
}

// Source returns the configured page source.
func (d *Driver) Source() (string, error) {
	if err := d.record("Source"); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.source, nil
}

// Screenshot returns a mock PNG image.
func (d *Driver) Screenshot() ([]byte, error) {
	if err := d.record("Screenshot"); err != nil {
		return nil, err
	}
	// Minimal valid PNG (1x1 transparent pixel)
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

// Execute records a catalog method and returns its configured result.
func (d *Driver) Execute(method string, args []interface{}) (interface{}, error) {
	if err := d.record(method, args...); err != nil {
		return nil, err
	}
	return d.Config.Results[method], nil
}

// FindElement resolves strategy/value against the current source. The
// returned id is the element's index path.
func (d *Driver) FindElement(strategy, value string) (string, error) {
	if err := d.record("FindElement", strategy, value); err != nil {
		return "", err
	}

	d.mu.Lock()
	xmlData := d.source
	d.mu.Unlock()

	doc, err := source.Parse(xmlData)
	if err != nil {
		return "", err
	}
	found, err := locator.Find(doc, strategy, value)
	if err != nil {
		return "", core.ErrInvalidArgument.WithCause(err)
	}
	if len(found) == 0 {
		return "", core.ErrElementNotFound.WithMessage(fmt.Sprintf("element not found: %s=%s", strategy, value))
	}
	return found[0].Path, nil
}

// ClickElement simulates a click.
func (d *Driver) ClickElement(elementID string) error {
	return d.record("ClickElement", elementID)
}

// ClearElement simulates clearing a text field.
func (d *Driver) ClearElement(elementID string) error {
	return d.record("ClearElement", elementID)
}

// SendKeysToElement simulates typing.
func (d *Driver) SendKeysToElement(elementID, text string) error {
	return d.record("SendKeysToElement", elementID, text)
}

// Tap simulates a tap at screen coordinates.
func (d *Driver) Tap(x, y int) error {
	return d.record("Tap", x, y)
}

// Swipe simulates a swipe gesture.
func (d *Driver) Swipe(startX, startY, endX, endY, durationMs int) error {
	return d.record("Swipe", startX, startY, endX, endY, durationMs)
}
