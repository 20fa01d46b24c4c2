// Package main implements generate-captchas, which tops up (or replaces) a
// FancyCaptcha image pool using captcha.py.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fancycaptcha/internal/adapters/generator"
	"fancycaptcha/internal/adapters/output"
	"fancycaptcha/internal/adapters/storage"
	"fancycaptcha/internal/core/domain"
	"fancycaptcha/internal/core/usecases"
	"fancycaptcha/internal/platform/config"
	"fancycaptcha/internal/platform/errors"
	"fancycaptcha/internal/platform/logx"
	"fancycaptcha/internal/platform/ui"

	"github.com/spf13/pflag"
)

var (
	// set with -ldflags at build time
	version = "dev"
	commit  = "none"
)

const appName = "generate-captchas"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		config.PrintUsage(stdout)
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if cfg.PrintVersion {
		fmt.Fprintf(stdout, "%s %s (%s)\n", appName, version, commit)
		return 0
	}

	logger := logx.NewWithWriter(stderr, cfg.Level())
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger.Debug("configuration loaded", "config_file", cfg.ConfigPath, "storage", cfg.Storage.Type)

	presenter, err := ui.New(ui.UIMode(cfg.UI.Mode), ui.LogFormat(cfg.UI.Format), stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", errors.Classify(errors.ErrConfiguration, err, "select console output"))
		return 1
	}
	defer presenter.Close()

	if err := replenish(ctx, cfg, logger, presenter, stdout); err != nil {
		logger.Err(err, "fatal", true)
		presenter.Error(err.Error())
		return 1
	}
	return 0
}

// replenish wires storage, generator and replenisher for cfg and runs it.
func replenish(ctx context.Context, cfg config.Config, logger logx.Logger, presenter ui.Presenter, stdout io.Writer) error {
	req, err := domain.NewGenerationRequest(domain.GenerationRequest{
		Count:        cfg.Run.Fill,
		Wordlist:     cfg.Run.Wordlist,
		Font:         cfg.Run.Font,
		FontSize:     cfg.Run.FontSize,
		FontSizeSet:  cfg.Run.FontSizeSet,
		Blacklist:    cfg.Run.Blacklist,
		Verbose:      cfg.Run.Verbose,
		OldGenerator: cfg.Run.OldCaptcha,
	})
	if err != nil {
		return errors.Classify(errors.ErrConfiguration, err, "invalid generation request")
	}

	backend, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			logger.Warn("closing storage failed", "error", cerr.Error())
		}
	}()

	gen := generator.NewScriptGenerator(logger, cfg.Generator)
	replenisher := usecases.NewReplenisher(backend, gen, presenter, logger, usecases.Config{
		SecretKey:       cfg.Captcha.Secret,
		DirectoryLevels: cfg.Captcha.DirectoryLevels,
		RenderDir:       cfg.Captcha.RenderDir,
		TempRoot:        cfg.TempDir,
	})

	presenter.Start(ui.RunInfo{
		Fill:            req.Count,
		DeleteOld:       cfg.Run.Delete,
		OldGenerator:    req.OldGenerator,
		Storage:         backend.Name(),
		DirectoryLevels: cfg.Captcha.DirectoryLevels,
	})

	start := time.Now()
	rep, err := replenisher.Run(ctx, usecases.Options{Request: req, DeleteOld: cfg.Run.Delete})
	if err != nil {
		return err
	}

	finished := time.Now()
	presenter.Finish(ui.Summary{
		Estimated: rep.Estimated,
		Requested: rep.Requested,
		Stored:    len(rep.Stored),
		Failed:    len(rep.Failed),
		Deleted:   rep.Deleted,
		Skipped:   rep.Skipped,
		Duration:  finished.Sub(start),
	})

	summary := output.BuildRunSummary(rep, backend.Name(), req.Count, cfg.Run.Delete, start, finished)
	if len(rep.Failed) > 0 && ui.UIMode(cfg.UI.Mode) == ui.UIModePretty {
		if err := output.OutputTable(stdout, summary); err != nil {
			logger.Warn("could not print failure table", "error", err.Error())
		}
	}
	if cfg.ReportDir != "" {
		path, err := output.OutputJSON(cfg.ReportDir, summary)
		if err != nil {
			logger.Warn("could not write run report", "dir", cfg.ReportDir, "error", err.Error())
		} else {
			logger.Info("run report written", "path", path)
		}
	}
	return nil
}
