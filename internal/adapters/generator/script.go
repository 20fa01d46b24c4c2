// Package generator runs the external captcha image generator.
package generator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"fancycaptcha/internal/core/domain"
	"fancycaptcha/internal/platform/config"
	"fancycaptcha/internal/platform/errors"
	"fancycaptcha/internal/platform/logx"
)

// stderrTail bounds how much generator stderr is kept for error messages.
const stderrTail = 4 * 1024

// ScriptGenerator invokes captcha.py (or captcha-old.py) through an
// interpreter. Arguments are passed as a list, never through a shell.
type ScriptGenerator struct {
	logger logx.Logger
	cfg    config.Generator
}

// NewScriptGenerator returns a generator using cfg's interpreter and scripts.
func NewScriptGenerator(logger logx.Logger, cfg config.Generator) *ScriptGenerator {
	return &ScriptGenerator{
		logger: logger.With("generator", "script"),
		cfg:    cfg,
	}
}

func (g *ScriptGenerator) Name() string { return "script" }

// ScriptPath returns the script used for the requested variant.
func (g *ScriptGenerator) ScriptPath(old bool) string {
	script := g.cfg.Script
	if old {
		script = g.cfg.OldScript
	}
	if filepath.IsAbs(script) {
		return script
	}
	return filepath.Join(g.cfg.ScriptDir, script)
}

// Command returns the program and argument list for inv.
func (g *ScriptGenerator) Command(inv domain.Invocation) (string, []string) {
	args := append([]string{g.ScriptPath(inv.Request.OldGenerator)}, Args(inv)...)
	return g.cfg.Interpreter, args
}

// Args builds the generator's command line after the script path:
// --key, --output, --count and --dirs, then each optional parameter that is
// set.
func Args(inv domain.Invocation) []string {
	req := inv.Request
	args := []string{
		"--key", inv.SecretKey,
		"--output", inv.OutputDir,
		"--count", strconv.Itoa(req.Count),
		"--dirs", strconv.Itoa(inv.DirectoryLevels),
	}
	if req.Wordlist != "" {
		args = append(args, "--wordlist", req.Wordlist)
	}
	if req.Font != "" {
		args = append(args, "--font", req.Font)
	}
	if req.FontSizeSet || req.FontSize > 0 {
		args = append(args, "--font-size", strconv.Itoa(req.FontSize))
	}
	if req.Blacklist != "" {
		args = append(args, "--blacklist", req.Blacklist)
	}
	if req.Verbose {
		args = append(args, "--verbose")
	}
	return args
}

// Generate runs the generator and waits for it. There is no timeout; only
// ctx cancellation stops it early. Stdout lines go to the debug log.
func (g *ScriptGenerator) Generate(ctx context.Context, inv domain.Invocation) error {
	name, args := g.Command(inv)
	startTime := time.Now()

	// the secret must not reach the logs
	g.logger.Info("executing generator",
		"exec_path", name,
		"script", args[0],
		"count", inv.Request.Count,
		"output", inv.OutputDir,
	)

	cmd := exec.CommandContext(ctx, name, args...)
	stderr := &tailBuffer{max: stderrTail}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Classify(errors.ErrGeneration, err, "create stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return errors.Classify(errors.ErrGeneration, err, "could not start %s", name)
	}
	g.logger.Debug("generator started", "pid", cmd.Process.Pid)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		g.logger.Debug("generator output", "line", scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		g.logger.Warn("error reading generator output", "error", err.Error())
		// keep the pipe flowing or the generator blocks on write
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	duration := time.Since(startTime)
	if waitErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		g.logger.Warn("generator exited with error",
			"exit_code", code,
			"duration", duration.String(),
		)
		msg := fmt.Sprintf("could not run generation script (exit code %d)", code)
		if tail := strings.TrimSpace(stderr.String()); tail != "" {
			msg += ": " + tail
		}
		return errors.Classify(errors.ErrGeneration, waitErr, "%s", msg)
	}

	g.logger.Info("generator completed", "duration", duration.String())
	return nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
