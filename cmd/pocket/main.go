package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/pocket/internal/api"
	"github.com/hpungsan/pocket/internal/config"
	"github.com/hpungsan/pocket/internal/extract"
	"github.com/hpungsan/pocket/internal/logger"
	"github.com/hpungsan/pocket/internal/mcp"
	"github.com/hpungsan/pocket/internal/ops"
	"github.com/hpungsan/pocket/internal/token"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Handle --help/--version before loading config
	if isHelpOrVersion() {
		exit(newCLIApp(nil).RunContext(ctx, os.Args))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(filepath.Join(homeDir, ".pocket"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.ResolvePaths(homeDir)

	logger.Configure(logger.ParseLevel(cfg.LogLevel), os.Stderr)
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warnf("ignoring unknown disabled_tools: %v", unknown)
	}

	tokens := token.NewFileStore(cfg.TokenPath)
	env := &cliEnv{
		cfg:    cfg,
		tokens: tokens,
		deps: ops.Deps{
			Client: api.New(cfg.BaseURL, time.Duration(cfg.TimeoutSeconds)*time.Second),
			Tokens: tokens,
		},
		newExtractor: extract.New,
	}

	exit(newCLIApp(env).RunContext(ctx, os.Args))
}

// exit reports err the way every command does and terminates.
// An exit error with an empty message has already printed its own output.
func exit(err error) {
	if err == nil {
		os.Exit(0)
	}
	code := 1
	if ec, ok := err.(cli.ExitCoder); ok {
		code = ec.ExitCode()
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	os.Exit(code)
}
