package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/devicelab-dev/maestro-inspector/pkg/core"
	"github.com/devicelab-dev/maestro-inspector/pkg/inspector"
	"github.com/devicelab-dev/maestro-inspector/pkg/recorder"
)

const shellHelp = `Commands:
  refresh                      re-fetch source and screenshot
  tree                         list elements
  select <path>                select element by index path
  at <x> <y>                   select deepest element at a point
  point <x> <y>                act on a point using the interaction mode
  search <strategy> <value>    list elements matched by a locator
  click | clear                act on the selected element
  type <text>                  send keys to the selected element
  tap <x> <y>                  tap at coordinates
  swipe <x1> <y1> <x2> <y2> [ms]
  mode select|tap|swipe        screenshot interaction mode
  app native|web_hybrid        app mode
  actions                      list catalog actions
  action <ref> [args...]       run a catalog action
  record start|pause|clear|show
  code [js|python]             print recorded actions as code
  save <file>                  save the page source
  info                         session summary
  quit`

var errQuit = errors.New("quit")

// shell is a line-oriented front end over one inspector session.
type shell struct {
	session   *inspector.Session
	recorder  *recorder.Recorder
	out       io.Writer
	format    string
	framework string
	codeOpts  recorder.Options
}

// run reads commands until EOF, "quit" or ctx is done. Command errors are
// printed and do not end the shell.
func (sh *shell) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(sh.out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(sh.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := sh.exec(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(sh.out, "error: %v\n", err)
			}
		}
	}
}

func (sh *shell) exec(line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]
	s := sh.session

	switch cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
		return nil
	case "info":
		fmt.Fprintln(sh.out, s.Describe())
		return nil
	case "refresh":
		if err := s.Refresh(); err != nil {
			return err
		}
		return sh.print(viewTree(s.Snapshot().Document))
	case "tree":
		snap := s.Snapshot()
		if snap == nil {
			return core.ErrNoSnapshot
		}
		return sh.print(viewTree(snap.Document))
	case "select":
		if len(args) != 1 {
			return fmt.Errorf("usage: select <path>")
		}
		sel, err := s.Select(args[0])
		if err != nil {
			return err
		}
		return sh.printSelection(sel)
	case "at", "point":
		nums, err := intArgs(args, 2, 2)
		if err != nil {
			return err
		}
		if cmd == "at" {
			sel, err := s.SelectAt(nums[0], nums[1])
			if err != nil {
				return err
			}
			return sh.printSelection(sel)
		}
		res, err := s.PointAt(nums[0], nums[1])
		if err != nil {
			return err
		}
		if res.Selection != nil {
			return sh.printSelection(res.Selection)
		}
		if res.Pending {
			fmt.Fprintln(sh.out, "swipe start set, give the end point")
		}
		return nil
	case "search":
		if len(args) != 2 {
			return fmt.Errorf("usage: search <strategy> <value>")
		}
		found, err := s.Search(args[0], args[1])
		if err != nil {
			return err
		}
		doc := s.Snapshot().Document
		views := make([]elementView, 0, len(found))
		for _, elem := range found {
			views = append(views, viewElement(doc, elem))
		}
		return sh.print(views)
	case "click":
		return s.ClickSelected()
	case "clear":
		return s.ClearSelected()
	case "type":
		if len(args) == 0 {
			return fmt.Errorf("usage: type <text>")
		}
		return s.SendKeysToSelected(strings.Join(args, " "))
	case "tap":
		nums, err := intArgs(args, 2, 2)
		if err != nil {
			return err
		}
		return s.Tap(nums[0], nums[1])
	case "swipe":
		nums, err := intArgs(args, 4, 5)
		if err != nil {
			return err
		}
		duration := inspector.DefaultSwipeDuration
		if len(nums) == 5 {
			duration = nums[4]
		}
		return s.Swipe(nums[0], nums[1], nums[2], nums[3], duration)
	case "mode":
		if len(args) != 1 {
			return fmt.Errorf("usage: mode select|tap|swipe")
		}
		return s.SetInteractionMode(inspector.InteractionMode(args[0]))
	case "app":
		if len(args) != 1 {
			return fmt.Errorf("usage: app native|web_hybrid")
		}
		return s.SetAppMode(inspector.AppMode(args[0]))
	case "actions":
		for _, l := range catalogLines(s.Catalog()) {
			fmt.Fprintln(sh.out, l)
		}
		return nil
	case "action":
		if len(args) == 0 {
			return fmt.Errorf("usage: action <ref> [args...]")
		}
		res, err := s.ApplyAction(args[0], args[1:])
		if err != nil {
			return err
		}
		return sh.print(res)
	case "record":
		return sh.record(args)
	case "code":
		framework := sh.framework
		if len(args) > 0 {
			framework = args[0]
		}
		code, err := recorder.Generate(framework, sh.recorder.Actions(), sh.codeOpts)
		if err != nil {
			return err
		}
		fmt.Fprint(sh.out, code)
		return nil
	case "save":
		if len(args) != 1 {
			return fmt.Errorf("usage: save <file>")
		}
		if err := s.SaveSource(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Source saved to %s\n", args[0])
		return nil
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (sh *shell) record(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: record start|pause|clear|show")
	}
	switch args[0] {
	case "start":
		sh.recorder.Start()
	case "pause":
		sh.recorder.Pause()
	case "clear":
		sh.recorder.Clear()
	case "show":
		return sh.print(sh.recorder.Actions())
	default:
		return fmt.Errorf("usage: record start|pause|clear|show")
	}
	return nil
}

func (sh *shell) print(v interface{}) error {
	return printOutput(sh.out, sh.format, v)
}

func (sh *shell) printSelection(sel *inspector.Selection) error {
	view := viewSelection(sel)
	if len(view.Locators) == 0 {
		fmt.Fprintln(sh.out, "no unique locator found")
	}
	return sh.print(view)
}

// splitArgs splits a command line on spaces, keeping double-quoted runs
// together. Backslash escapes the next character inside quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote && r == '\\' && i+1 < len(runes):
			i++
			cur.WriteRune(runes[i])
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}
