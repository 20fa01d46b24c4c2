// internal/platform/config/config_test.go
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"fancycaptcha/internal/platform/errors"
	"fancycaptcha/internal/platform/logx"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvConfig, EnvClass, EnvSecret, EnvDirectoryLevels, EnvRenderDir,
		EnvPython, EnvScriptDir, EnvStorageType, EnvStoragePath, EnvTempDir, logx.EnvLevel,
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

var requiredArgs = []string{"--wordlist", "words.txt", "--font", "font.ttf", "--fill", "50"}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(requiredArgs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Captcha.Class != RequiredCaptchaClass {
		t.Errorf("expected default class, got %q", cfg.Captcha.Class)
	}
	if cfg.Storage.Type != "fs" || cfg.Storage.Path != "captcha-store" {
		t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Generator.Interpreter != "python" || cfg.Generator.Script != "captcha.py" {
		t.Errorf("unexpected generator defaults: %+v", cfg.Generator)
	}
	if cfg.Run.Fill != 50 || !cfg.Run.FillSet {
		t.Errorf("expected fill 50 set, got %+v", cfg.Run)
	}
	if cfg.Level() != logx.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.Level())
	}
	if cfg.UI != (UI{Mode: "pretty", Format: "text"}) {
		t.Errorf("unexpected ui defaults: %+v", cfg.UI)
	}
}

func TestLoad_UIFlags(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(append([]string{"--ui", "RAW", "--log-format", "json", "--report-dir", "reports"}, requiredArgs...))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UI != (UI{Mode: "raw", Format: "json"}) {
		t.Errorf("unexpected ui: %+v", cfg.UI)
	}
	if cfg.ReportDir != "reports" {
		t.Errorf("unexpected report dir %q", cfg.ReportDir)
	}
}

func TestLoad_FontSizeSet(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(requiredArgs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Run.FontSizeSet {
		t.Error("font size should not be marked set without --font-size")
	}

	cfg, err = Load(append([]string{"--font-size", "0"}, requiredArgs...))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Run.FontSizeSet || cfg.Run.FontSize != 0 {
		t.Errorf("explicit --font-size 0 not kept: %+v", cfg.Run)
	}
}

func TestLoad_Flags(t *testing.T) {
	clearEnv(t)

	args := append([]string{
		"--font-size", "40",
		"--blacklist", "bad.txt",
		"--verbose",
		"--oldcaptcha",
		"--delete",
		"--storage", "SQLite",
		"--storage-path", "/var/lib/captcha.db",
		"--tmpdir", "/scratch",
		"-q",
	}, requiredArgs...)

	cfg, err := Load(args)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := RunOptions{
		Wordlist: "words.txt", Font: "font.ttf", FontSize: 40, Blacklist: "bad.txt",
		Fill: 50, FillSet: true, Verbose: true, OldCaptcha: true, Delete: true,
	}
	if cfg.Run != want {
		t.Errorf("run options = %+v, want %+v", cfg.Run, want)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("storage type should be normalized, got %q", cfg.Storage.Type)
	}
	if cfg.Storage.Path != "/var/lib/captcha.db" || cfg.TempDir != "/scratch" {
		t.Errorf("unexpected paths: %+v %q", cfg.Storage, cfg.TempDir)
	}
	if !cfg.Quiet || cfg.UI.Mode != "quiet" {
		t.Errorf("expected quiet, got quiet=%v ui=%q", cfg.Quiet, cfg.UI.Mode)
	}
	if cfg.Level() != logx.LevelDebug {
		t.Errorf("--verbose should force debug, got %v", cfg.Level())
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	file := filepath.Join(dir, "captcha.yaml")
	yamlData := `
captcha:
  secret: from-file
  directory_levels: 2
  render_dir: pool
generator:
  interpreter: python3
  script_dir: /opt/confirmedit
storage:
  type: sqlite
  path: /from/file.db
log_level: warn
`
	if err := os.WriteFile(file, []byte(yamlData), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvSecret, "from-env")
	t.Setenv(EnvStoragePath, "/from/env.db")

	cfg, err := Load(append([]string{"--config", file, "--storage-path", "/from/flag.db"}, requiredArgs...))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name, got, want string
	}{
		{"secret env over file", cfg.Captcha.Secret, "from-env"},
		{"storage path flag over env", cfg.Storage.Path, "/from/flag.db"},
		{"storage type from file", cfg.Storage.Type, "sqlite"},
		{"render dir from file", cfg.Captcha.RenderDir, "pool"},
		{"interpreter from file", cfg.Generator.Interpreter, "python3"},
		{"script dir from file", cfg.Generator.ScriptDir, "/opt/confirmedit"},
		{"old script keeps default", cfg.Generator.OldScript, "captcha-old.py"},
		{"config path recorded", cfg.ConfigPath, file},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
	if cfg.Captcha.DirectoryLevels != 2 {
		t.Errorf("expected 2 directory levels, got %d", cfg.Captcha.DirectoryLevels)
	}
	if cfg.Level() != logx.LevelWarn {
		t.Errorf("expected warn level from file, got %v", cfg.Level())
	}
}

func TestLoad_ConfigFromEnvPath(t *testing.T) {
	clearEnv(t)

	file := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(file, []byte("captcha:\n  secret: s3cr3t\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfig, file)

	cfg, err := Load(requiredArgs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Captcha.Secret != "s3cr3t" {
		t.Errorf("expected secret from env-selected file, got %q", cfg.Captcha.Secret)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("captcha: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--nope"}},
		{"bad int", []string{"--fill", "many"}},
		{"missing file", []string{"--config", "/does/not/exist.yaml"}},
		{"invalid yaml", []string{"--config", bad}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			if !errors.IsConfiguration(err) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestLoad_Help(t *testing.T) {
	clearEnv(t)

	_, err := Load([]string{"--help"})
	if !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("expected pflag.ErrHelp, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.Captcha.Secret = "secret"
	valid.Run = RunOptions{Wordlist: "w", Font: "f", Fill: 10, FillSet: true}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero fill allowed", func(c *Config) { c.Run.Fill = 0 }, ""},
		{"wrong class", func(c *Config) { c.Captcha.Class = "QuestyCaptcha" }, "not FancyCaptcha"},
		{"missing secret", func(c *Config) { c.Captcha.Secret = "" }, "secret is not set"},
		{"missing wordlist", func(c *Config) { c.Run.Wordlist = "" }, "--wordlist is required"},
		{"missing font", func(c *Config) { c.Run.Font = "" }, "--font is required"},
		{"missing fill", func(c *Config) { c.Run.FillSet = false }, "--fill is required"},
		{"negative fill", func(c *Config) { c.Run.Fill = -3 }, "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.IsConfiguration(err) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestString_MasksSecret(t *testing.T) {
	c := DefaultConfig()
	c.Captcha.Secret = "hunter2"

	out := c.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("secret leaked: %s", out)
	}
	if !strings.Contains(out, "********") {
		t.Errorf("expected masked secret: %s", out)
	}
}

func TestNormalize(t *testing.T) {
	c := Config{Captcha: Captcha{Class: " FancyCaptcha ", DirectoryLevels: -1}, Run: RunOptions{FontSize: -2}}
	normalize(&c)

	if c.Captcha.Class != "FancyCaptcha" || c.Captcha.DirectoryLevels != 0 || c.Run.FontSize != 0 {
		t.Errorf("unexpected normalized config: %+v", c)
	}
	if c.Captcha.RenderDir != "captcha-render" || c.Generator.Interpreter != "python" {
		t.Errorf("defaults not restored: %+v", c)
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"3", 0, 3},
		{" 2 ", 0, 2},
		{"x", 7, 7},
		{"", 1, 1},
	}
	for _, tt := range tests {
		if got := parseInt(tt.input, tt.def); got != tt.expected {
			t.Errorf("parseInt(%q, %d) = %d, want %d", tt.input, tt.def, got, tt.expected)
		}
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)

	for _, want := range []string{"--wordlist", "--fill", "--oldcaptcha", EnvSecret} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("usage should mention %s", want)
		}
	}
}
