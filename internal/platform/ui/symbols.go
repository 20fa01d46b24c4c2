// internal/platform/ui/symbols.go
package ui

import "github.com/pterm/pterm"

// Status is the state of a stage.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	StatusWarning
	StatusError
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Symbol returns the glyph printed in front of a status line.
func (s Status) Symbol() string {
	switch s {
	case StatusPending:
		return "⏸"
	case StatusRunning:
		return "⣾"
	case StatusSuccess:
		return "✓"
	case StatusWarning:
		return "⚠"
	case StatusError:
		return "✗"
	case StatusSkipped:
		return "⊘"
	default:
		return "?"
	}
}

// Color returns the pterm color for the status.
func (s Status) Color() pterm.Color {
	switch s {
	case StatusRunning:
		return pterm.FgCyan
	case StatusSuccess:
		return pterm.FgGreen
	case StatusWarning:
		return pterm.FgYellow
	case StatusError:
		return pterm.FgRed
	case StatusPending, StatusSkipped:
		return pterm.FgGray
	default:
		return pterm.FgDefault
	}
}

// Style returns a pterm.Style for the status.
func (s Status) Style() *pterm.Style {
	return pterm.NewStyle(s.Color())
}

// Level maps the status to a raw log level.
func (s Status) Level() string {
	switch s {
	case StatusWarning:
		return "WARN"
	case StatusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

var (
	IconCaptcha = "🧩"
	IconStorage = "📦"
	IconTime    = "⏱"
	IconStats   = "📊"
)

const SeparatorHeavy = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
