// Package main provides the kindle-lock CLI application.
//
// kindle-lock tracks daily Kindle reading progress against a goal. It
// logs into the cloud reader, polls per-book reading positions, and
// accounts progress per effective day with a configurable reset hour.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	// Define global flags.
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	// Parse command.
	flag.Parse()

	// Handle version flag.
	if *showVersion {
		fmt.Printf("kindle-lock %s\n", version)
		return nil
	}

	// Get command.
	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	command := args[0]

	switch command {
	case "login":
		return runLoginCommand(*configPath)
	case "logout":
		return runLogoutCommand(*configPath)
	case "status":
		return runStatusCommand(*configPath, args[1:])
	case "refresh":
		return runRefreshCommand(*configPath, args[1:])
	case "library":
		return runLibraryCommand(*configPath, args[1:])
	case "watch":
		return runWatchCommand(*configPath, args[1:])
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runStatusCommand runs the status command.
func runStatusCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	format := fs.String("format", "table", "output format (table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &statusCommand{
		format:     *format,
		compact:    *compact,
		configPath: configPath,
	}
	return cmd.Execute()
}

// runRefreshCommand runs the refresh command.
func runRefreshCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	format := fs.String("format", "table", "output format (table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &refreshCommand{
		format:     *format,
		compact:    *compact,
		configPath: configPath,
	}
	return cmd.Execute()
}

// runLibraryCommand runs the library command.
func runLibraryCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("library", flag.ExitOnError)
	all := fs.Bool("all", false, "list the full library instead of recent items")
	format := fs.String("format", "table", "output format (table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &libraryCommand{
		all:        *all,
		format:     *format,
		compact:    *compact,
		configPath: configPath,
	}
	return cmd.Execute()
}

// runLoginCommand runs the login command.
func runLoginCommand(configPath string) error {
	cmd := &loginCommand{configPath: configPath}
	return cmd.Execute()
}

// runLogoutCommand runs the logout command.
func runLogoutCommand(configPath string) error {
	cmd := &logoutCommand{configPath: configPath}
	return cmd.Execute()
}

// runWatchCommand runs the watch command.
func runWatchCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := fs.Duration("interval", 0, "refresh interval (default: from config)")
	format := fs.String("format", "simple", "output format (table, simple)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &watchCommand{
		interval:   *interval,
		format:     *format,
		configPath: configPath,
	}
	return cmd.Execute()
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string) error {
	cmd := &configCommand{configPath: configPath}
	return cmd.Execute(args)
}

// minRefreshInterval floors the watch cadence. The upstream treats
// 15-30 minute spacing as a soft rate limit.
const minRefreshInterval = 15 * time.Minute

// showUsage displays usage information.
func showUsage() error {
	usage := `kindle-lock - daily Kindle reading goal tracker

Usage:
  kindle-lock [flags] <command> [command flags]

Commands:
  login       Log into the cloud reader and store the session
  logout      Clear stored credentials and login state
  status      Show today's reading progress and session status
  refresh     Run one refresh cycle now
  library     List books (recent window by default)
  watch       Run refresh cycles on a schedule
  config      Configuration management (show, path, init)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Status / Refresh Command Flags:
  -format     Output format (table, json, simple)
  -compact    Compact output

Library Command Flags:
  -all        List the full library instead of the recent window
  -format     Output format (table, json, simple)

Watch Command Flags:
  -interval   Refresh interval (default: from config, floor 15m)
  -format     Output format (table, simple)

Examples:
  # Interactive login
  kindle-lock login

  # Show today's progress
  kindle-lock status

  # Force a refresh now and show the result
  kindle-lock refresh

  # List recently read books
  kindle-lock library

  # Full library as JSON
  kindle-lock library -all -format json

  # Poll every 30 minutes
  kindle-lock watch -interval 30m

  # Configuration
  kindle-lock config show
  kindle-lock config init

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}
