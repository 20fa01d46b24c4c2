// internal/adapters/output/report.go
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"fancycaptcha/internal/core/usecases"
)

// RunSummary is the exported record of one replenish run.
type RunSummary struct {
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Duration  string    `json:"duration"`
	Storage   string    `json:"storage"`
	Fill      int       `json:"fill"`
	DeleteOld bool      `json:"delete_old"`

	Estimated int  `json:"estimated"`
	Requested int  `json:"requested"`
	Skipped   bool `json:"skipped"`
	Stored    int  `json:"stored"`
	Deleted   int  `json:"deleted"`

	DeleteFailures int           `json:"delete_failures"`
	Failures       []FailureLine `json:"failures,omitempty"`
}

// FailureLine is one file that could not be stored.
type FailureLine struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// BuildRunSummary converts a replenisher report into its exported form.
func BuildRunSummary(rep *usecases.Report, storage string, fill int, deleteOld bool, started, finished time.Time) RunSummary {
	s := RunSummary{
		Started:        started.UTC(),
		Finished:       finished.UTC(),
		Duration:       finished.Sub(started).String(),
		Storage:        storage,
		Fill:           fill,
		DeleteOld:      deleteOld,
		Estimated:      rep.Estimated,
		Requested:      rep.Requested,
		Skipped:        rep.Skipped,
		Stored:         len(rep.Stored),
		Deleted:        rep.Deleted,
		DeleteFailures: rep.DeleteFailures,
	}
	for _, f := range rep.Failed {
		s.Failures = append(s.Failures, FailureLine{Path: f.Path, Error: f.Err.Error()})
	}
	return s
}

// OutputJSON writes the summary to dir as fancycaptcha_<timestamp>.json and
// returns the file path. The file is renamed into place once complete.
func OutputJSON(dir string, summary RunSummary) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	name := fmt.Sprintf("fancycaptcha_%s.json", summary.Finished.Format("20060102_150405"))
	final := filepath.Join(dir, name)

	f, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := WriteJSON(f, summary, true); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return "", fmt.Errorf("failed to move report into place: %w", err)
	}
	return final, nil
}

// WriteJSON encodes the summary to w.
func WriteJSON(w io.Writer, summary RunSummary, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
