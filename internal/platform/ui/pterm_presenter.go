// internal/platform/ui/pterm_presenter.go
package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"fancycaptcha/internal/core/ports"
)

// PTermPresenter renders the run with pterm: a configuration box, one line
// per stage and a spinner while the generator runs.
type PTermPresenter struct {
	mu sync.Mutex

	// spin enables the generator spinner
	spin    bool
	spinner *pterm.SpinnerPrinter

	stageStart map[ports.Stage]time.Time
}

func NewPTermPresenter() *PTermPresenter {
	return &PTermPresenter{
		spin:       true,
		stageStart: make(map[ports.Stage]time.Time),
	}
}

// WithSpinner toggles the generator spinner. Disable it when stdout is not
// a terminal.
func (p *PTermPresenter) WithSpinner(on bool) *PTermPresenter {
	p.spin = on
	return p
}

func (p *PTermPresenter) Start(info RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("FancyCaptcha - Generate Captchas")
	pterm.Println()

	box := pterm.DefaultBox.
		WithTitle("Run Configuration").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan))

	content := fmt.Sprintf("%s Fill: %s\n", IconCaptcha, pterm.Cyan(info.Fill))
	content += fmt.Sprintf("   Replace pool: %s\n", pterm.Yellow(onOff(info.DeleteOld)))
	content += fmt.Sprintf("   Old generator: %s\n", onOff(info.OldGenerator))
	content += fmt.Sprintf("%s Storage: %s\n", IconStorage, pterm.Cyan(info.Storage))
	content += fmt.Sprintf("   Directory levels: %d", info.DirectoryLevels)
	box.Println(content)

	pterm.Println()
}

func (p *PTermPresenter) Notify(e ports.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg, status, ok := Message(e)
	if !ok {
		return
	}

	switch e.Type {
	case ports.EventStageStarted:
		p.stageStart[e.Stage] = time.Now()
		if e.Stage == ports.StageGenerate && p.spin {
			p.spinner, _ = pterm.DefaultSpinner.
				WithStyle(pterm.NewStyle(pterm.FgCyan)).
				WithSequence("⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷").
				Start(msg)
			return
		}
		p.stopSpinner()
		pterm.DefaultSection.WithLevel(2).Println(msg)

	case ports.EventStageCompleted:
		line := msg
		if started, ok := p.stageStart[e.Stage]; ok {
			line = fmt.Sprintf("%s (%s)", msg, formatDuration(time.Since(started)))
		}
		if e.Stage == ports.StageGenerate && p.spinner != nil {
			p.spinner.Success(line)
			p.spinner = nil
			return
		}
		status.Style().Println(fmt.Sprintf("  %s %s", status.Symbol(), line))

	case ports.EventFileFailed:
		pterm.Error.Println(msg)

	case ports.EventNothingToDo:
		pterm.Info.Println(msg)

	default:
		status.Style().Println(fmt.Sprintf("  %s %s", status.Symbol(), msg))
	}
}

func (p *PTermPresenter) Error(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.spinner != nil {
		p.spinner.Fail(msg)
		p.spinner = nil
		return
	}
	pterm.Error.Println(msg)
}

func (p *PTermPresenter) Finish(s Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopSpinner()

	pterm.Println()
	pterm.Println(pterm.LightBlue(SeparatorHeavy))
	if s.Skipped {
		pterm.Info.Printf("Pool already holds about %d captchas, nothing generated\n", s.Estimated)
		return
	}

	box := pterm.DefaultBox.
		WithTitle("Summary").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgGreen))

	content := fmt.Sprintf("%s Duration: %s\n", IconTime, pterm.Green(formatDuration(s.Duration)))
	content += fmt.Sprintf("%s Requested: %s\n", IconStats, pterm.Cyan(s.Requested))
	content += fmt.Sprintf("   Stored: %s", pterm.Green(s.Stored))
	if s.Failed > 0 {
		content += fmt.Sprintf("\n   Failed: %s", pterm.Red(s.Failed))
	}
	if s.Deleted > 0 {
		content += fmt.Sprintf("\n   Deleted: %s", pterm.Yellow(s.Deleted))
	}
	box.Println(content)
	pterm.Println()
}

func (p *PTermPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopSpinner()
	return nil
}

func (p *PTermPresenter) stopSpinner() {
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}
