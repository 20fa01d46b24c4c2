package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// FakeGeneratorOptions shapes the behaviour of the fake captcha.py.
type FakeGeneratorOptions struct {
	// ExitCode is returned after the images are written
	ExitCode int

	// ExtraFiles are written to the output root besides the images
	ExtraFiles []string

	// Stderr is printed to stderr before exiting
	Stderr string
}

// FakeGenerator is a shell script standing in for captcha.py.
type FakeGenerator struct {
	// Interpreter to run Script with
	Interpreter string

	// Dir holds Script and OldScript
	Dir string

	Script    string
	OldScript string

	argsFile string
}

const fakeGeneratorScript = `#!/bin/sh
printf '%s\n' "$0" "$@" > "$(dirname "$0")/args.txt"
out=""; count=0; dirs=0
while [ $# -gt 0 ]; do
	case "$1" in
		--output) out="$2"; shift; shift ;;
		--count) count="$2"; shift; shift ;;
		--dirs) dirs="$2"; shift; shift ;;
		*) shift ;;
	esac
done
i=0
while [ "$i" -lt "$count" ]; do
	salt=$(printf '%x' $((i + 4096)))
	hash=$(printf '%08x' $(( (i * 2654435761 + 12345) % 4294967296 )))
	d="$out"
	j=1
	while [ "$j" -le "$dirs" ] && [ "$j" -le 8 ]; do
		d="$d/$(printf '%s' "$hash" | cut -c"$j")"
		j=$((j + 1))
	done
	mkdir -p "$d"
	printf 'PNG-%s' "$i" > "$d/image_${salt}_${hash}.png"
	i=$((i + 1))
done
{{EXTRA}}
echo "generated $count captchas"
{{STDERR}}
exit {{EXIT}}
`

// WriteFakeGenerator writes captcha.py and captcha-old.py replacements into
// a temp dir. Both record their argv to args.txt and write one image per
// requested count, sharded like the real generator.
func WriteFakeGenerator(t *testing.T, opts FakeGeneratorOptions) *FakeGenerator {
	t.Helper()
	dir := t.TempDir()

	var extra strings.Builder
	for _, name := range opts.ExtraFiles {
		fmt.Fprintf(&extra, "printf 'junk' > \"$out/%s\"\n", name)
	}
	stderr := ""
	if opts.Stderr != "" {
		stderr = fmt.Sprintf("echo %q >&2", opts.Stderr)
	}
	body := strings.NewReplacer(
		"{{EXTRA}}", extra.String(),
		"{{STDERR}}", stderr,
		"{{EXIT}}", strconv.Itoa(opts.ExitCode),
	).Replace(fakeGeneratorScript)

	g := &FakeGenerator{
		Interpreter: "sh",
		Dir:         dir,
		Script:      "captcha.py",
		OldScript:   "captcha-old.py",
		argsFile:    filepath.Join(dir, "args.txt"),
	}
	for _, name := range []string{g.Script, g.OldScript} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o755); err != nil {
			t.Fatalf("write fake generator: %v", err)
		}
	}
	return g
}

// Args returns the argv (script path first) of the last run, or nil.
func (g *FakeGenerator) Args(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(g.argsFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read fake generator args: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// FakeImageName returns the (salt, hash) the fake generator uses for its
// i-th image.
func FakeImageName(i int) (salt, hash string) {
	salt = fmt.Sprintf("%x", i+4096)
	hash = fmt.Sprintf("%08x", (uint64(i)*2654435761+12345)%4294967296)
	return salt, hash
}
