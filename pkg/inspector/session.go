package inspector

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devicelab-dev/maestro-inspector/pkg/actions"
	"github.com/devicelab-dev/maestro-inspector/pkg/core"
	"github.com/devicelab-dev/maestro-inspector/pkg/locator"
	"github.com/devicelab-dev/maestro-inspector/pkg/logger"
	"github.com/devicelab-dev/maestro-inspector/pkg/recorder"
	"github.com/devicelab-dev/maestro-inspector/pkg/source"
)

// InteractionMode decides what a point on the screenshot does.
type InteractionMode string

// Interaction modes
const (
	ModeSelect InteractionMode = "select"
	ModeTap    InteractionMode = "tap"
	ModeSwipe  InteractionMode = "swipe"
)

// AppMode is the kind of app under inspection.
type AppMode string

// App modes
const (
	AppNative    AppMode = "native"
	AppWebHybrid AppMode = "web_hybrid"
)

// DefaultSwipeDuration is used for swipes built from two screen points.
const DefaultSwipeDuration = 800 // ms

// Options configure a Session.
type Options struct {
	Catalog           *actions.Catalog   // nil means actions.Default()
	Recorder          *recorder.Recorder // nil disables recording
	KeepAliveInterval time.Duration      // 0 disables keep-alive pings
	PollInterval      time.Duration      // 0 disables source polling
	AppMode           AppMode
}

// Snapshot is one fetched UI state. It is never modified after it is stored.
type Snapshot struct {
	Document        *source.Document
	Screenshot      []byte
	ScreenshotError string
	FetchedAt       time.Time
}

// Selection is the selected element together with what was derived from it
// against the snapshot it was selected in.
type Selection struct {
	Element      *source.Element
	Rectangle    locator.Rectangle
	HasRectangle bool
	Locators     locator.Result
}

// Session is one inspector attached to a backend.
type Session struct {
	ID string

	backend  Backend
	catalog  *actions.Catalog
	recorder *recorder.Recorder
	opts     Options
	log      *zap.SugaredLogger

	snapshot atomic.Pointer[Snapshot]

	mu         sync.Mutex
	selection  *Selection
	mode       InteractionMode
	appMode    AppMode
	swipeStart *[2]int

	loopMu sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a session. No snapshot is fetched until Refresh.
func NewSession(backend Backend, opts Options) (*Session, error) {
	catalog := opts.Catalog
	if catalog == nil {
		var err error
		if catalog, err = actions.Default(); err != nil {
			return nil, err
		}
	}
	if opts.AppMode == "" {
		opts.AppMode = AppNative
	}
	if err := validAppMode(opts.AppMode); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	return &Session{
		ID:       id,
		backend:  backend,
		catalog:  catalog,
		recorder: opts.Recorder,
		opts:     opts,
		log:      logger.With("session", id),
		mode:     ModeSelect,
		appMode:  opts.AppMode,
	}, nil
}

// Catalog returns the action catalog in use.
func (s *Session) Catalog() *actions.Catalog {
	return s.catalog
}

// Recorder returns the session recorder, or nil.
func (s *Session) Recorder() *recorder.Recorder {
	return s.recorder
}

// Snapshot returns the current snapshot, or nil before the first Refresh.
func (s *Session) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Selection returns the current selection, or nil.
func (s *Session) Selection() *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Refresh fetches a new snapshot. A source that fails to parse leaves the
// previous snapshot in place. A failed screenshot is kept on the snapshot as
// an error message. An existing selection is re-derived against the new
// snapshot, or dropped if its element no longer exists.
func (s *Session) Refresh() error {
	xmlData, err := s.backend.Source()
	if err != nil {
		return fmt.Errorf("fetch page source: %w", err)
	}

	doc, err := source.Parse(xmlData)
	if err != nil {
		s.log.Warnw("page source rejected, keeping previous snapshot", "error", err)
		return err
	}

	snap := &Snapshot{Document: doc, FetchedAt: time.Now()}
	if shot, err := s.backend.Screenshot(); err != nil {
		s.log.Warnw("screenshot failed", "error", err)
		snap.ScreenshotError = err.Error()
	} else {
		snap.Screenshot = shot
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Store(snap)

	if s.selection != nil {
		path := s.selection.Element.Path
		if elem := doc.FindByPath(path); elem != nil {
			s.selection = derive(doc, elem)
		} else {
			s.log.Debugw("selected element gone after refresh", "path", path)
			s.selection = nil
		}
	}

	s.log.Debugw("snapshot refreshed", "elements", len(doc.Elements()))
	return nil
}

func derive(doc *source.Document, elem *source.Element) *Selection {
	rect, ok := locator.ExtractRectangle(elem.Attributes)
	return &Selection{
		Element:      elem,
		Rectangle:    rect,
		HasRectangle: ok,
		Locators:     locator.DeriveLocators(elem.Attributes, doc),
	}
}

// Select selects the element at a dotted index path.
func (s *Session) Select(path string) (*Selection, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, core.ErrNoSnapshot
	}
	elem := snap.Document.FindByPath(path)
	if elem == nil {
		return nil, core.ErrElementNotFound.WithDetails(map[string]interface{}{"path": path})
	}
	return s.setSelection(snap, elem), nil
}

// SelectAt selects the deepest element whose rectangle contains the point.
// Among equally deep candidates the later one in document order wins, since
// it is drawn on top.
func (s *Session) SelectAt(x, y int) (*Selection, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, core.ErrNoSnapshot
	}

	var hit *source.Element
	for _, elem := range snap.Document.Elements() {
		rect, ok := locator.ExtractRectangle(elem.Attributes)
		if !ok || !rect.Contains(x, y) {
			continue
		}
		if hit == nil || elem.Depth >= hit.Depth {
			hit = elem
		}
	}
	if hit == nil {
		return nil, core.ErrElementNotFound.WithDetails(map[string]interface{}{"x": x, "y": y})
	}
	return s.setSelection(snap, hit), nil
}

func (s *Session) setSelection(snap *Snapshot, elem *source.Element) *Selection {
	sel := derive(snap.Document, elem)

	s.mu.Lock()
	defer s.mu.Unlock()
	// A refresh may have landed while deriving; keep the result consistent
	// with whatever snapshot is current now.
	if cur := s.snapshot.Load(); cur != snap {
		if e := cur.Document.FindByPath(elem.Path); e != nil {
			sel = derive(cur.Document, e)
		}
	}
	s.selection = sel
	s.log.Debugw("element selected", "path", sel.Element.Path, "locators", len(sel.Locators))
	return sel
}

// ClearSelection drops the current selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

// Search lists the elements of the current snapshot matched by a
// strategy/value pair.
func (s *Session) Search(strategy, value string) ([]*source.Element, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, core.ErrNoSnapshot
	}
	found, err := locator.Find(snap.Document, strategy, value)
	if err != nil {
		return nil, core.ErrInvalidArgument.WithCause(err)
	}
	return found, nil
}

// SaveSource writes the raw page source of the current snapshot to path.
func (s *Session) SaveSource(path string) error {
	snap := s.snapshot.Load()
	if snap == nil {
		return core.ErrNoSnapshot
	}
	return os.WriteFile(path, []byte(snap.Document.Raw()), 0644)
}

// Mode returns the current interaction mode.
func (s *Session) Mode() InteractionMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetInteractionMode switches the interaction mode and discards a half-built
// swipe.
func (s *Session) SetInteractionMode(mode InteractionMode) error {
	switch mode {
	case ModeSelect, ModeTap, ModeSwipe:
	default:
		return core.ErrInvalidArgument.WithMessage(fmt.Sprintf("unknown interaction mode %q", mode))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.swipeStart = nil
	return nil
}

// AppMode returns the current app mode.
func (s *Session) AppMode() AppMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appMode
}

// SetAppMode switches between native and web/hybrid inspection.
func (s *Session) SetAppMode(mode AppMode) error {
	if err := validAppMode(mode); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appMode = mode
	return nil
}

func validAppMode(mode AppMode) error {
	switch mode {
	case AppNative, AppWebHybrid:
		return nil
	}
	return core.ErrInvalidArgument.WithMessage(fmt.Sprintf("unknown app mode %q", mode))
}
