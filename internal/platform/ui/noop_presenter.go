// internal/platform/ui/noop_presenter.go
package ui

import "fancycaptcha/internal/core/ports"

// NoopPresenter prints nothing. Used with --quiet.
type NoopPresenter struct{}

func NewNoopPresenter() *NoopPresenter {
	return &NoopPresenter{}
}

func (n *NoopPresenter) Notify(ports.Event) {}

func (n *NoopPresenter) Start(RunInfo) {}

func (n *NoopPresenter) Finish(Summary) {}

func (n *NoopPresenter) Error(string) {}

func (n *NoopPresenter) Close() error { return nil }
