package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/maestro-inspector/pkg/actions"
	"github.com/devicelab-dev/maestro-inspector/pkg/config"
	"github.com/devicelab-dev/maestro-inspector/pkg/inspector"
	"github.com/devicelab-dev/maestro-inspector/pkg/logger"
	"github.com/devicelab-dev/maestro-inspector/pkg/recorder"
)

// sessionEnv is what a live command gets to work with.
type sessionEnv struct {
	cfg      *config.Config
	session  *inspector.Session
	recorder *recorder.Recorder
}

// withSession connects, runs fn and tears everything down again.
func withSession(c *cli.Context, fn func(env *sessionEnv) error) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	closeLog, err := initLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	client, release, err := connect(cfg)
	if err != nil {
		logger.Error("Connect failed: %v", err)
		return err
	}
	defer release()

	rec := recorder.New()
	s, err := inspector.NewSession(client, inspector.Options{
		Catalog:           catalog,
		Recorder:          rec,
		KeepAliveInterval: cfg.KeepAliveInterval,
		PollInterval:      cfg.PollInterval,
		AppMode:           inspector.AppMode(cfg.AppMode),
	})
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(&sessionEnv{cfg: cfg, session: s, recorder: rec})
}

var inspectCommand = &cli.Command{
	Name:  "inspect",
	Usage: "Open an interactive inspector shell on a live session",
	Description: `Connect to the automation server and inspect the app interactively.
The session is kept alive in the background; type "help" for commands.

Examples:
  maestro-inspector inspect
  maestro-inspector --caps caps.json inspect --record --code python`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "record",
			Usage: "Start recording immediately",
		},
		&cli.StringFlag{
			Name:  "code",
			Usage: "Framework for generated code (js, python; default from config)",
		},
		&cli.BoolFlag{
			Name:  "save-recording",
			Usage: "Write the generated code to <home>/recordings/<framework>/ on exit",
		},
	},
	Action: runInspect,
}

func runInspect(c *cli.Context) error {
	return withSession(c, func(env *sessionEnv) error {
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		framework := c.String("code")
		if framework == "" {
			framework = env.cfg.Framework
		}
		if c.Bool("record") {
			env.recorder.Start()
		}

		if err := env.session.Refresh(); err != nil {
			return err
		}
		env.session.Start(ctx)

		sh := &shell{
			session:   env.session,
			recorder:  env.recorder,
			out:       c.App.Writer,
			format:    c.String("format"),
			framework: framework,
			codeOpts:  recorder.Options{ServerURL: env.cfg.ServerURL, Capabilities: env.cfg.Capabilities},
		}
		fmt.Fprintf(c.App.Writer, "%s\n", env.session.Describe())
		if err := sh.run(ctx, c.App.Reader); err != nil {
			return err
		}

		if c.Bool("save-recording") && len(env.recorder.Actions()) > 0 {
			path, err := saveRecording(env.recorder, framework, sh.codeOpts)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Recording saved to %s\n", path)
		}
		return nil
	})
}

func saveRecording(rec *recorder.Recorder, framework string, opts recorder.Options) (string, error) {
	code, err := recorder.Generate(framework, rec.Actions(), opts)
	if err != nil {
		return "", err
	}
	dir := config.GetRecordingsDir(framework)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create recordings directory: %w", err)
	}
	ext := map[string]string{"js": ".js", "python": ".py"}[framework]
	path := filepath.Join(dir, rec.ID()+ext)
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return "", err
	}
	logger.Info("Recording %s written to %s", rec.ID(), path)
	return path, nil
}

var sourceCommand = &cli.Command{
	Name:  "source",
	Usage: "Download the current page source (and optionally a screenshot)",
	Description: `Fetch the UI tree of the live session and save it as XML.

Examples:
  maestro-inspector source
  maestro-inspector source --output page.xml --screenshot screen.png`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file (default: <home>/sources/source-<timestamp>.xml)",
		},
		&cli.StringFlag{
			Name:  "screenshot",
			Usage: "Also save the screenshot as PNG",
		},
	},
	Action: runSource,
}

func runSource(c *cli.Context) error {
	return withSession(c, func(env *sessionEnv) error {
		if err := env.session.Refresh(); err != nil {
			return err
		}

		path := c.String("output")
		if path == "" {
			dir := config.GetSourcesDir()
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create sources directory: %w", err)
			}
			path = filepath.Join(dir, "source-"+time.Now().Format("20060102-150405")+".xml")
		}
		if err := env.session.SaveSource(path); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Source saved to %s\n", path)

		if shotPath := c.String("screenshot"); shotPath != "" {
			snap := env.session.Snapshot()
			if snap.ScreenshotError != "" {
				return fmt.Errorf("could not obtain screenshot: %s", snap.ScreenshotError)
			}
			if err := os.WriteFile(shotPath, snap.Screenshot, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Screenshot saved to %s\n", shotPath)
		}
		return nil
	})
}

var actionsCommand = &cli.Command{
	Name:  "actions",
	Usage: "List the remote commands available to exec",
	Description: `Print the action catalog: categories, groups, actions, their client
method names, arguments and whether they refresh the source.

Examples:
  maestro-inspector actions
  maestro-inspector -f yaml actions --category Web`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "category",
			Usage: "Only list one category",
		},
	},
	Action: runActions,
}

func runActions(c *cli.Context) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	categories := catalog.Categories
	if name := c.String("category"); name != "" {
		categories = nil
		for _, cat := range catalog.Categories {
			if strings.EqualFold(cat.Name, name) {
				categories = append(categories, cat)
			}
		}
		if len(categories) == 0 {
			return fmt.Errorf("unknown category %q", name)
		}
	}
	return printOutput(c.App.Writer, c.String("format"), categories)
}

var execCommand = &cli.Command{
	Name:      "exec",
	Usage:     "Run a remote command from the action catalog",
	ArgsUsage: "<method | Category/Group/Action> [args...]",
	Description: `Run one catalog action against the live session. Arguments are given
in catalog order and converted to the declared types; pass "" to omit one.

Examples:
  maestro-inspector exec getOrientation
  maestro-inspector exec setGeoLocation 52.52 13.40 34
  maestro-inspector exec --code python "Web/Navigation/Go to URL" https://example.com`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "code",
			Usage: "Also print the call as client code (js, python)",
		},
	},
	Action: runExec,
}

func runExec(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("an action is required (see: maestro-inspector actions)")
	}
	ref := c.Args().First()
	args := c.Args().Tail()

	return withSession(c, func(env *sessionEnv) error {
		env.recorder.Start()
		res, err := env.session.ApplyAction(ref, args)
		if err != nil {
			return err
		}
		if err := printOutput(c.App.Writer, c.String("format"), res); err != nil {
			return err
		}
		if framework := c.String("code"); framework != "" {
			code, err := recorder.Generate(framework, env.recorder.Actions(),
				recorder.Options{ServerURL: env.cfg.ServerURL, Capabilities: env.cfg.Capabilities})
			if err != nil {
				return err
			}
			fmt.Fprint(c.App.Writer, code)
		}
		return nil
	})
}

var tapCommand = &cli.Command{
	Name:      "tap",
	Usage:     "Tap at screen coordinates",
	ArgsUsage: "<x> <y>",
	Action: func(c *cli.Context) error {
		nums, err := intArgs(c.Args().Slice(), 2, 2)
		if err != nil {
			return err
		}
		return withSession(c, func(env *sessionEnv) error {
			return env.session.Tap(nums[0], nums[1])
		})
	},
}

var swipeCommand = &cli.Command{
	Name:      "swipe",
	Usage:     "Swipe between two screen points",
	ArgsUsage: "<startX> <startY> <endX> <endY>",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "duration",
			Usage: "Swipe duration in milliseconds",
			Value: inspector.DefaultSwipeDuration,
		},
	},
	Action: func(c *cli.Context) error {
		nums, err := intArgs(c.Args().Slice(), 4, 4)
		if err != nil {
			return err
		}
		return withSession(c, func(env *sessionEnv) error {
			return env.session.Swipe(nums[0], nums[1], nums[2], nums[3], c.Int("duration"))
		})
	},
}

// intArgs parses between lo and hi integer arguments.
func intArgs(args []string, lo, hi int) ([]int, error) {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return nil, fmt.Errorf("expected %d numbers, got %d", lo, len(args))
		}
		return nil, fmt.Errorf("expected %d to %d numbers, got %d", lo, hi, len(args))
	}
	nums := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		nums[i] = n
	}
	return nums, nil
}

// catalogLines renders the catalog compactly for the shell.
func catalogLines(catalog *actions.Catalog) []string {
	var lines []string
	for _, cat := range catalog.Categories {
		for _, g := range cat.Groups {
			for _, a := range g.Actions {
				var args []string
				for _, arg := range a.Args {
					args = append(args, arg.Name+":"+string(arg.Type))
				}
				line := fmt.Sprintf("%-24s %s/%s/%s", a.Method, cat.Name, g.Name, a.Name)
				if len(args) > 0 {
					line += " (" + strings.Join(args, ", ") + ")"
				}
				lines = append(lines, line)
			}
		}
	}
	return lines
}
