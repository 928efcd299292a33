package inspector

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/maestro-inspector/pkg/core"
	"github.com/devicelab-dev/maestro-inspector/pkg/recorder"
)

// ActionResult is what running a catalog action produced.
type ActionResult struct {
	Method    string      `json:"method" yaml:"method"`
	Value     interface{} `json:"value,omitempty" yaml:"value,omitempty"`
	Refreshed bool        `json:"refreshed" yaml:"refreshed"`
}

// ApplyAction runs a catalog action, given as a method name or a
// "Category/Group/Action" path, with raw string arguments. Actions flagged
// for refresh re-fetch the snapshot afterwards.
func (s *Session) ApplyAction(ref string, raw []string) (*ActionResult, error) {
	action, err := s.catalog.Resolve(ref)
	if err != nil {
		return nil, err
	}
	args, err := action.Coerce(raw)
	if err != nil {
		return nil, err
	}

	s.log.Infow("applying action", "method", action.Method)
	value, err := s.backend.Execute(action.Method, args)
	if err != nil {
		return nil, err
	}
	s.record(recorder.Action{Kind: recorder.KindMethod, Method: action.Method, Args: trimNil(args)})

	res := &ActionResult{Method: action.Method, Value: value}
	if action.Refresh {
		if err := s.Refresh(); err != nil {
			return res, err
		}
		res.Refreshed = true
	}
	return res, nil
}

// trimNil drops trailing omitted arguments so recorded calls read naturally.
func trimNil(args []interface{}) []interface{} {
	n := len(args)
	for n > 0 && args[n-1] == nil {
		n--
	}
	return args[:n]
}

// ClickSelected clicks the selected element through its best locator.
func (s *Session) ClickSelected() error {
	return s.onSelected(recorder.KindClick, "", s.backend.ClickElement)
}

// ClearSelected clears the selected element through its best locator.
func (s *Session) ClearSelected() error {
	return s.onSelected(recorder.KindClear, "", s.backend.ClearElement)
}

// SendKeysToSelected types text into the selected element.
func (s *Session) SendKeysToSelected(text string) error {
	return s.onSelected(recorder.KindSendKeys, text, func(id string) error {
		return s.backend.SendKeysToElement(id, text)
	})
}

func (s *Session) onSelected(kind recorder.Kind, text string, fn func(elementID string) error) error {
	sel := s.Selection()
	if sel == nil {
		return core.ErrElementNotFound.WithMessage("no element selected")
	}
	best, ok := sel.Locators.Best()
	if !ok {
		return core.ErrNoUniqueLocator.WithDetails(map[string]interface{}{"path": sel.Element.Path})
	}

	id, err := s.backend.FindElement(best.Strategy, best.Value)
	if err != nil {
		return err
	}
	if err := fn(id); err != nil {
		return err
	}
	s.log.Infow("element action", "kind", kind, "strategy", best.Strategy, "value", best.Value)

	if s.recorder != nil {
		s.recorder.RecordElement(kind, best.Strategy, best.Value, text)
	}
	return s.Refresh()
}

// Tap taps at screen coordinates and refreshes.
func (s *Session) Tap(x, y int) error {
	if err := s.backend.Tap(x, y); err != nil {
		return err
	}
	s.record(recorder.Action{Kind: recorder.KindTap, X: x, Y: y})
	return s.Refresh()
}

// Swipe swipes between two screen points and refreshes.
func (s *Session) Swipe(startX, startY, endX, endY, durationMs int) error {
	if err := s.backend.Swipe(startX, startY, endX, endY, durationMs); err != nil {
		return err
	}
	s.record(recorder.Action{
		Kind: recorder.KindSwipe, X: startX, Y: startY, EndX: endX, EndY: endY, Duration: durationMs,
	})
	return s.Refresh()
}

// PointResult reports what PointAt did.
type PointResult struct {
	Mode      InteractionMode `json:"mode" yaml:"mode"`
	Selection *Selection      `json:"-" yaml:"-"`
	Pending   bool            `json:"pending,omitempty" yaml:"pending,omitempty"` // swipe start stored
}

// PointAt handles a point on the screenshot according to the interaction
// mode: select the element under it, tap it, or use it as one end of a swipe.
func (s *Session) PointAt(x, y int) (*PointResult, error) {
	s.mu.Lock()
	mode := s.mode
	var start *[2]int
	if mode == ModeSwipe {
		if s.swipeStart == nil {
			s.swipeStart = &[2]int{x, y}
		} else {
			start, s.swipeStart = s.swipeStart, nil
		}
	}
	s.mu.Unlock()

	res := &PointResult{Mode: mode}
	switch mode {
	case ModeTap:
		return res, s.Tap(x, y)
	case ModeSwipe:
		if start == nil {
			res.Pending = true
			return res, nil
		}
		return res, s.Swipe(start[0], start[1], x, y, DefaultSwipeDuration)
	default:
		sel, err := s.SelectAt(x, y)
		res.Selection = sel
		return res, err
	}
}

func (s *Session) record(a recorder.Action) {
	if s.recorder != nil {
		s.recorder.Record(a)
	}
}

// Start runs the keep-alive and source-poll loops until ctx is done or Close
// is called. Calling Start on a running session is a no-op.
func (s *Session) Start(ctx context.Context) {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	if s.opts.KeepAliveInterval > 0 {
		s.every(ctx, s.opts.KeepAliveInterval, func() {
			if err := s.backend.Ping(); err != nil {
				s.log.Warnw("keep-alive failed", "error", err)
			}
		})
	}
	if s.opts.PollInterval > 0 {
		s.every(ctx, s.opts.PollInterval, func() {
			if err := s.Refresh(); err != nil {
				s.log.Debugw("poll refresh failed", "error", err)
			}
		})
	}
	s.log.Infow("session loops started",
		"keepAlive", s.opts.KeepAliveInterval.String(), "poll", s.opts.PollInterval.String())
}

func (s *Session) every(ctx context.Context, interval time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Close stops the background loops and waits for them to exit.
func (s *Session) Close() {
	s.loopMu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.loopMu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Infow("session closed")
}

// Describe is a one-line summary for logs and CLI output.
func (s *Session) Describe() string {
	snap := s.Snapshot()
	n := 0
	if snap != nil {
		n = len(snap.Document.Elements())
	}
	return fmt.Sprintf("session %s (%s, %s mode, %d elements)", s.ID, s.AppMode(), s.Mode(), n)
}
