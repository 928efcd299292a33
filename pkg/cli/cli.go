// Package cli provides the command-line interface for maestro-inspector.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/maestro-inspector/pkg/actions"
	"github.com/devicelab-dev/maestro-inspector/pkg/config"
	"github.com/devicelab-dev/maestro-inspector/pkg/driver/appium"
	"github.com/devicelab-dev/maestro-inspector/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml (default: config.yaml or config.yml in the current directory)",
		EnvVars: []string{"MAESTRO_INSPECTOR_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "server-url",
		Aliases: []string{"appium-url"},
		Usage:   "Automation server URL",
		EnvVars: []string{"APPIUM_URL"},
	},
	&cli.StringFlag{
		Name:    "session-id",
		Usage:   "Attach to an existing session instead of creating one",
		EnvVars: []string{"APPIUM_SESSION_ID"},
	},
	&cli.StringFlag{
		Name:  "caps",
		Usage: "JSON file with session capabilities (merged over config capabilities)",
	},
	&cli.StringFlag{
		Name:    "actions-file",
		Usage:   "YAML action catalog replacing the built-in one",
		EnvVars: []string{"MAESTRO_INSPECTOR_ACTIONS"},
	},
	&cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (json, yaml)",
		Value:   formatJSON,
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Log file path (default: <home>/logs/inspector.log)",
		EnvVars: []string{"MAESTRO_INSPECTOR_LOG"},
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (debug, info, warn, error)",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"MAESTRO_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:    "maestro-inspector",
		Usage:   "Inspect mobile app UI trees and derive element locators",
		Version: Version,
		Description: `Maestro Inspector fetches the UI tree of a running automation session,
derives locators that uniquely identify elements and runs remote commands.

Examples:
  maestro-inspector locators --source page.xml --path 0.0.1
  maestro-inspector --server-url http://127.0.0.1:4723 inspect
  maestro-inspector exec getOrientation
  maestro-inspector actions --category Device`,
		Flags:  GlobalFlags,
		Reader: in,
		Writer: out,
		Before: loadDotEnv,
		Commands: []*cli.Command{
			locatorsCommand,
			searchCommand,
			inspectCommand,
			sourceCommand,
			actionsCommand,
			execCommand,
			tapCommand,
			swipeCommand,
		},
	}
}

// loadDotEnv reads .env from the working directory before flags resolve
// their EnvVars. A missing file is fine.
func loadDotEnv(c *cli.Context) error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// loadSettings merges the workspace config with global flags. Flags win.
func loadSettings(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v := c.String("server-url"); v != "" {
		cfg.ServerURL = v
	}
	if v := c.String("session-id"); v != "" {
		cfg.SessionID = v
	}
	if v := c.String("actions-file"); v != "" {
		cfg.ActionsFile = v
	}
	if v := c.String("log-file"); v != "" {
		cfg.LogFile = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if c.Bool("verbose") {
		cfg.LogLevel = "debug"
	}
	if capsFile := c.String("caps"); capsFile != "" {
		caps, err := loadCapabilities(capsFile)
		if err != nil {
			return nil, err
		}
		for k, v := range caps {
			cfg.Capabilities[k] = v
		}
	}
	return cfg, nil
}

// loadCapabilities loads session capabilities from a JSON file.
func loadCapabilities(capsFile string) (map[string]interface{}, error) {
	data, err := os.ReadFile(capsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read caps file: %w", err)
	}

	var caps map[string]interface{}
	if err := json.Unmarshal(data, &caps); err != nil {
		return nil, fmt.Errorf("failed to parse caps JSON: %w", err)
	}
	return caps, nil
}

// loadCatalog returns the configured action catalog.
func loadCatalog(cfg *config.Config) (*actions.Catalog, error) {
	if cfg.ActionsFile != "" {
		return actions.Load(cfg.ActionsFile)
	}
	return actions.Default()
}

// initLogging starts the file logger. The returned func closes it.
func initLogging(cfg *config.Config) (func(), error) {
	logPath := cfg.LogFile
	if logPath == "" {
		logPath = filepath.Join(config.GetLogsDir(), "inspector.log")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := logger.Init(logPath, cfg.LogLevel); err != nil {
		return nil, err
	}
	logger.Info("=== maestro-inspector %s started at %s ===", Version, time.Now().Format(time.RFC3339))
	return logger.Close, nil
}

// connect opens the automation session. Attached sessions are left running
// on release; sessions created here are deleted.
func connect(cfg *config.Config) (*appium.Client, func(), error) {
	client := appium.NewClient(cfg.ServerURL)

	if cfg.SessionID != "" {
		platform, _ := cfg.Capabilities["platformName"].(string)
		client.Attach(cfg.SessionID, platform)
		if err := client.Ping(); err != nil {
			return nil, nil, fmt.Errorf("session %s not reachable: %w", cfg.SessionID, err)
		}
		logger.Info("Attached to session %s at %s", cfg.SessionID, cfg.ServerURL)
		return client, func() {}, nil
	}

	logger.Info("Creating session at %s", cfg.ServerURL)
	if err := client.Connect(cfg.Capabilities); err != nil {
		return nil, nil, err
	}
	logger.Info("Session created: %s (%s)", client.SessionID(), client.Platform())
	return client, func() {
		if err := client.Disconnect(); err != nil {
			logger.Warn("Failed to delete session: %v", err)
		}
	}, nil
}
