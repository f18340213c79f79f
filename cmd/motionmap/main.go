package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/motionmap/internal/config"
	"github.com/okian/motionmap/pkg/logger"
	"github.com/okian/motionmap/pkg/metrics"
)

const usage = `usage: motionmap [-config file] <command> [flags] [files...]

commands:
  export   derive rotation and position streams of motion files
  render   draw rotation graphs, and the embedding when one is configured
  nearest  print the embedding point and frame nearest to a probe
`

var errUsage = errors.New("usage")

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "motionmap:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("motionmap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", os.Getenv(config.EnvFile), "YAML or JSON config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.LoadFile(ctx, *configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.WithWriter(stderr), logger.WithFormat(logger.Format(cfg.LogFormat))); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := logger.Get().Named("cli")
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "export":
		err = runExport(ctx, cfg, rest, stdout, stderr)
	case "render":
		err = runRender(ctx, cfg, rest, stdout, stderr)
	case "nearest":
		err = runNearest(ctx, cfg, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return errUsage
	}

	if cfg.MetricsFile != "" {
		if merr := metrics.WriteTextfile(cfg.MetricsFile); merr != nil {
			log.Error(ctx, "writing metrics failed", logger.String("path", cfg.MetricsFile), logger.Error(merr))
			err = errors.Join(err, merr)
		}
	}
	return err
}
