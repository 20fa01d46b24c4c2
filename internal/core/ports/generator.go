// internal/core/ports/generator.go
package ports

import (
	"context"

	"fancycaptcha/internal/core/domain"
)

// Generator is the port for the external captcha image generator.
type Generator interface {
	// Name identifies the generator in logs
	Name() string

	// Generate writes inv.Request.Count images below inv.OutputDir and
	// blocks until the generator is done. Any failure is returned.
	Generate(ctx context.Context, inv domain.Invocation) error
}
