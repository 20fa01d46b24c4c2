// internal/platform/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"fancycaptcha/internal/platform/errors"
	"fancycaptcha/internal/platform/logx"
)

// RequiredCaptchaClass is the only captcha class this tool can fill.
const RequiredCaptchaClass = "FancyCaptcha"

// Environment variables read by Load.
const (
	EnvConfig          = "FANCYCAPTCHA_CONFIG"
	EnvClass           = "FANCYCAPTCHA_CLASS"
	EnvSecret          = "FANCYCAPTCHA_SECRET"
	EnvDirectoryLevels = "FANCYCAPTCHA_DIRECTORY_LEVELS"
	EnvRenderDir       = "FANCYCAPTCHA_RENDER_DIR"
	EnvPython          = "FANCYCAPTCHA_PYTHON"
	EnvScriptDir       = "FANCYCAPTCHA_SCRIPT_DIR"
	EnvStorageType     = "FANCYCAPTCHA_STORAGE_TYPE"
	EnvStoragePath     = "FANCYCAPTCHA_STORAGE_PATH"
	EnvTempDir         = "FANCYCAPTCHA_TMPDIR"
)

type Config struct {
	Captcha   Captcha   `yaml:"captcha"`
	Generator Generator `yaml:"generator"`
	Storage   Storage   `yaml:"storage"`
	UI        UI        `yaml:"ui"`
	ReportDir string    `yaml:"report_dir"`
	TempDir   string    `yaml:"temp_dir"`
	LogLevel  string    `yaml:"log_level"`

	// CLI only
	Run          RunOptions `yaml:"-"`
	ConfigPath   string     `yaml:"-"`
	Quiet        bool       `yaml:"-"`
	PrintVersion bool       `yaml:"-"`
}

type Captcha struct {
	Class           string `yaml:"class"`
	Secret          string `yaml:"secret"`
	DirectoryLevels int    `yaml:"directory_levels"`
	RenderDir       string `yaml:"render_dir"`
}

type Generator struct {
	Interpreter string `yaml:"interpreter"`
	ScriptDir   string `yaml:"script_dir"`
	Script      string `yaml:"script"`
	OldScript   string `yaml:"old_script"`
}

type Storage struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// UI selects the console presenter.
type UI struct {
	Mode   string `yaml:"mode"`   // pretty, raw or quiet
	Format string `yaml:"format"` // text or json, raw mode only
}

// RunOptions are the per-run flags of generate-captchas.
type RunOptions struct {
	Wordlist    string
	Font        string
	FontSize    int
	FontSizeSet bool
	Blacklist   string
	Fill        int
	FillSet     bool
	Verbose     bool
	OldCaptcha  bool
	Delete      bool
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		Captcha: Captcha{
			Class:           RequiredCaptchaClass,
			DirectoryLevels: 0,
			RenderDir:       "captcha-render",
		},
		Generator: Generator{
			Interpreter: "python",
			ScriptDir:   ".",
			Script:      "captcha.py",
			OldScript:   "captcha-old.py",
		},
		Storage: Storage{
			Type: "fs",
			Path: "captcha-store",
		},
		UI: UI{
			Mode:   "pretty",
			Format: "text",
		},
		LogLevel: "info",
	}
}

// Load builds the configuration: defaults, then the YAML file, then ENV,
// then flags. args excludes the program name. pflag.ErrHelp is returned
// untouched when -h/--help is given.
func Load(args []string) (Config, error) {
	cfg := DefaultConfig()

	fs, flags := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return cfg, err
		}
		return cfg, errors.Classify(errors.ErrConfiguration, err, "parse flags")
	}

	path := flags.configPath
	if path == "" {
		path = getenv(EnvConfig, "")
	}
	if path != "" {
		if err := loadFromFile(&cfg, path); err != nil {
			return cfg, err
		}
		cfg.ConfigPath = path
	}

	loadFromEnv(&cfg)
	applyFlags(&cfg, fs, flags)
	normalize(&cfg)

	return cfg, nil
}

// loadFromFile merges a YAML file over cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Classify(errors.ErrConfiguration, err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Classify(errors.ErrConfiguration, err, "parse config file %s", path)
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := getenv(EnvClass, ""); v != "" {
		cfg.Captcha.Class = v
	}
	if v := getenv(EnvSecret, ""); v != "" {
		cfg.Captcha.Secret = v
	}
	if v := getenv(EnvDirectoryLevels, ""); v != "" {
		cfg.Captcha.DirectoryLevels = parseInt(v, cfg.Captcha.DirectoryLevels)
	}
	if v := getenv(EnvRenderDir, ""); v != "" {
		cfg.Captcha.RenderDir = v
	}
	if v := getenv(EnvPython, ""); v != "" {
		cfg.Generator.Interpreter = v
	}
	if v := getenv(EnvScriptDir, ""); v != "" {
		cfg.Generator.ScriptDir = v
	}
	if v := getenv(EnvStorageType, ""); v != "" {
		cfg.Storage.Type = v
	}
	if v := getenv(EnvStoragePath, ""); v != "" {
		cfg.Storage.Path = v
	}
	if v := getenv(EnvTempDir, ""); v != "" {
		cfg.TempDir = v
	}
	if v := getenv(logx.EnvLevel, ""); v != "" {
		cfg.LogLevel = v
	}
}

// flagValues holds raw flag destinations until they are merged.
type flagValues struct {
	run        RunOptions
	configPath string
	quiet      bool
	version    bool
	storage    string
	storageDir string
	tempDir    string
	uiMode     string
	logFormat  string
	reportDir  string
}

func newFlagSet() (*pflag.FlagSet, *flagValues) {
	v := &flagValues{}
	fs := pflag.NewFlagSet("generate-captchas", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.StringVar(&v.run.Wordlist, "wordlist", "", "A list of words (required)")
	fs.StringVar(&v.run.Font, "font", "", "The font to use (required)")
	fs.IntVar(&v.run.FontSize, "font-size", 0, "The font size")
	fs.StringVar(&v.run.Blacklist, "blacklist", "", "A blacklist of words that should not be used")
	fs.IntVar(&v.run.Fill, "fill", 0, "Fill the captcha container to N files (required)")
	fs.BoolVar(&v.run.Verbose, "verbose", false, "Show debugging information")
	fs.BoolVar(&v.run.OldCaptcha, "oldcaptcha", false, "Use captcha-old.py, without the OCR fighting improvements")
	fs.BoolVar(&v.run.Delete, "delete", false, "Delete the old captchas")

	fs.StringVarP(&v.configPath, "config", "c", "", "Path to a YAML configuration file")
	fs.StringVar(&v.storage, "storage", "", "Storage backend type: fs, sqlite or memory")
	fs.StringVar(&v.storageDir, "storage-path", "", "Storage backend location")
	fs.StringVar(&v.tempDir, "tmpdir", "", "Directory for temporary files")
	fs.StringVar(&v.reportDir, "report-dir", "", "Write a JSON run report into this directory")
	fs.StringVar(&v.uiMode, "ui", "", "Console output: pretty, raw or quiet")
	fs.StringVar(&v.logFormat, "log-format", "", "Raw output format: text or json")
	fs.BoolVarP(&v.quiet, "quiet", "q", false, "No console output")
	fs.BoolVarP(&v.version, "version", "v", false, "Print version and exit")

	fs.Usage = func() {}
	return fs, v
}

func applyFlags(cfg *Config, fs *pflag.FlagSet, v *flagValues) {
	cfg.Run = v.run
	cfg.Run.FillSet = fs.Changed("fill")
	cfg.Run.FontSizeSet = fs.Changed("font-size")
	cfg.Quiet = v.quiet
	cfg.PrintVersion = v.version

	if v.storage != "" {
		cfg.Storage.Type = v.storage
	}
	if v.storageDir != "" {
		cfg.Storage.Path = v.storageDir
	}
	if v.tempDir != "" {
		cfg.TempDir = v.tempDir
	}
	if v.reportDir != "" {
		cfg.ReportDir = v.reportDir
	}
	if v.uiMode != "" {
		cfg.UI.Mode = v.uiMode
	}
	if v.logFormat != "" {
		cfg.UI.Format = v.logFormat
	}
	if v.run.Verbose {
		cfg.LogLevel = "debug"
	}
}

func normalize(c *Config) {
	c.Captcha.Class = strings.TrimSpace(c.Captcha.Class)
	c.Storage.Type = strings.ToLower(strings.TrimSpace(c.Storage.Type))
	c.UI.Mode = strings.ToLower(strings.TrimSpace(c.UI.Mode))
	c.UI.Format = strings.ToLower(strings.TrimSpace(c.UI.Format))
	if c.Quiet {
		c.UI.Mode = "quiet"
	}
	if c.Captcha.DirectoryLevels < 0 {
		c.Captcha.DirectoryLevels = 0
	}
	if c.Captcha.RenderDir == "" {
		c.Captcha.RenderDir = "captcha-render"
	}
	if c.Generator.Script == "" {
		c.Generator.Script = "captcha.py"
	}
	if c.Generator.OldScript == "" {
		c.Generator.OldScript = "captcha-old.py"
	}
	if c.Generator.Interpreter == "" {
		c.Generator.Interpreter = "python"
	}
	if c.Run.FontSize < 0 {
		c.Run.FontSize = 0
	}
}

// Validate checks that a run can start. Every failure is an
// errors.ErrConfiguration.
func (c Config) Validate() error {
	if c.Captcha.Class != RequiredCaptchaClass {
		return errors.Classify(errors.ErrConfiguration, nil,
			"captcha class is %q, not %s", c.Captcha.Class, RequiredCaptchaClass)
	}
	if c.Captcha.Secret == "" {
		return errors.Classify(errors.ErrConfiguration, nil, "captcha secret is not set (%s)", EnvSecret)
	}
	if c.Run.Wordlist == "" {
		return errors.Classify(errors.ErrConfiguration, nil, "--wordlist is required")
	}
	if c.Run.Font == "" {
		return errors.Classify(errors.ErrConfiguration, nil, "--font is required")
	}
	if !c.Run.FillSet {
		return errors.Classify(errors.ErrConfiguration, nil, "--fill is required")
	}
	if c.Run.Fill < 0 {
		return errors.Classify(errors.ErrConfiguration, nil, "--fill must not be negative, got %d", c.Run.Fill)
	}
	return nil
}

// Level returns the logx level for LogLevel.
func (c Config) Level() logx.Level {
	return logx.ParseLevel(c.LogLevel)
}

// String renders the config as YAML with the secret masked.
func (c Config) String() string {
	masked := c
	if masked.Captcha.Secret != "" {
		masked.Captcha.Secret = "********"
	}
	out, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(out)
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}
