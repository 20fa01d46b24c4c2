// internal/platform/config/help.go
package config

import (
	"fmt"
	"io"

	"fancycaptcha/internal/platform/logx"
)

const helpHeader = `
generate-captchas - Generate new captchas and move them into storage

USAGE:
  generate-captchas --wordlist <file> --font <file> --fill <N> [options]

FLAGS:
`

const helpFooter = `
CONFIGURATION:
  Settings that the wiki would normally hold (secret, directory levels,
  storage) come from a YAML file (--config or %s), then from
  environment variables, then from flags:

  %-30s captcha secret passed to the generator
  %-30s shard depth of the pool (default: 0)
  %-30s interpreter for the generator (default: python)
  %-30s directory holding captcha.py / captcha-old.py
  %-30s fs, sqlite or memory (default: fs)
  %-30s storage location (default: captcha-store)
  %-30s debug, info, warn, error

EXAMPLES:
  Top the pool up to 10000 images:
    generate-captchas --wordlist words.txt --font DejaVuSans.ttf --fill 10000

  Replace the whole pool with the old generator:
    generate-captchas --wordlist words.txt --font DejaVuSans.ttf --fill 5000 --delete --oldcaptcha

  Keep a JSON record of each run, logging to a pipe:
    generate-captchas --wordlist words.txt --font DejaVuSans.ttf --fill 10000 --ui raw --report-dir reports
`

// PrintUsage writes the help text to w.
func PrintUsage(w io.Writer) {
	fs, _ := newFlagSet()
	fmt.Fprint(w, helpHeader)
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintf(w, helpFooter,
		EnvConfig,
		EnvSecret,
		EnvDirectoryLevels,
		EnvPython,
		EnvScriptDir,
		EnvStorageType,
		EnvStoragePath,
		logx.EnvLevel,
	)
}
