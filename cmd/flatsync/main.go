package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmcdole/flatsync/internal/config"
	"github.com/mmcdole/flatsync/internal/logging"
)

// Version is set at build time via -ldflags
var Version = "dev"

const usageText = `usage: flatsync [-config path] <command> [flags]

commands:
  sync                          refresh homeworks, problems and images for offline use (default)
  watch                         run sync on the configured cron schedule
  list     [-q query]           list homeworks (cached when offline)
  problems -a id                list an assignment's problems
  find     -q concept           search cached problems by concept
  answer   -a id -i n -v value  record an answer locally [-unknown]
  submit   -a id                submit recorded answers
  status                        show the last sync report
`

func main() {
	var (
		showVersion bool
		configPath  string
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usageText) }
	flag.Parse()

	if showVersion {
		fmt.Printf("flatsync %s\n", Version)
		return
	}

	if err := run(configPath, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := logging.Setup(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = logging.Null()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	command := "sync"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("starting flatsync", "version", Version, "command", command)

	switch command {
	case "sync":
		return a.runSync(ctx, args)
	case "watch":
		return a.runWatch(ctx, args)
	case "list":
		return a.runList(ctx, args)
	case "problems":
		return a.runProblems(ctx, args)
	case "find":
		return a.runFind(args)
	case "answer":
		return a.runAnswer(args)
	case "submit":
		return a.runSubmit(ctx, args)
	case "status":
		return a.runStatus(args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
