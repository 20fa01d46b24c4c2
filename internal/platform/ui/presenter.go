// internal/platform/ui/presenter.go
package ui

import (
	"fmt"
	"io"
	"time"

	"fancycaptcha/internal/core/ports"
)

// UIMode selects how progress is shown.
type UIMode string

const (
	UIModePretty UIMode = "pretty" // pterm sections and spinners (default)
	UIModeRaw    UIMode = "raw"    // one logfmt or JSON line per event
	UIModeQuiet  UIMode = "quiet"  // no output
)

// Presenter shows the progress of a replenish run. It receives the
// replenisher's events through ports.Notifier.
type Presenter interface {
	ports.Notifier

	// Start prints the run configuration
	Start(info RunInfo)

	// Finish prints the final summary
	Finish(summary Summary)

	// Error shows a fatal error
	Error(msg string)

	// Close releases spinners and other resources
	Close() error
}

// RunInfo describes a run before it starts.
type RunInfo struct {
	Fill            int
	DeleteOld       bool
	OldGenerator    bool
	Storage         string
	DirectoryLevels int
}

// Summary is shown once a run finished.
type Summary struct {
	Estimated int
	Requested int
	Stored    int
	Failed    int
	Deleted   int
	Skipped   bool
	Duration  time.Duration
}

// New returns the presenter for mode. Raw output goes to w.
func New(mode UIMode, format LogFormat, w io.Writer) (Presenter, error) {
	switch mode {
	case UIModePretty, "":
		return NewPTermPresenter(), nil
	case UIModeRaw:
		return NewRawPresenter(format, w), nil
	case UIModeQuiet:
		return NewNoopPresenter(), nil
	default:
		return nil, fmt.Errorf("unknown ui mode %q", mode)
	}
}

// Message returns the console line for e and its status. ok is false for
// events that have no line of their own.
func Message(e ports.Event) (msg string, status Status, ok bool) {
	switch e.Type {
	case ports.EventEstimate:
		return fmt.Sprintf("Estimated number of current captchas is %d.", e.Count), StatusSuccess, true
	case ports.EventNothingToDo:
		return "No need to generate anymore captchas.", StatusSkipped, true
	case ports.EventFileFailed:
		return fmt.Sprintf("Could not save file '%s'.", e.Path), StatusError, true
	case ports.EventStageStarted:
		switch e.Stage {
		case ports.StageGenerate:
			return fmt.Sprintf("Generating %d new captchas...", e.Count), StatusRunning, true
		case ports.StageListOld:
			return "Getting a list of old captchas...", StatusRunning, true
		case ports.StageCopy:
			return "Copying the new captchas to storage...", StatusRunning, true
		case ports.StageDelete:
			return fmt.Sprintf("Deleting %d old captchas...", e.Count), StatusRunning, true
		case ports.StageCleanup:
			return "Removing temporary files...", StatusRunning, true
		}
	case ports.EventStageCompleted:
		if e.Stage == ports.StageEstimate {
			return "", StatusSuccess, false
		}
		return "Done.", StatusSuccess, true
	}
	return "", StatusPending, false
}
