// internal/core/domain/request.go
package domain

import "fmt"

// GenerationRequest describes one batch of captchas to generate.
// It is a value type: WithCount returns a modified copy.
type GenerationRequest struct {
	Count     int
	Wordlist  string
	Font      string
	FontSize  int // 0 = generator default unless FontSizeSet
	Blacklist string
	Verbose   bool

	// FontSizeSet passes FontSize to the generator even when it is 0.
	FontSizeSet bool

	// OldGenerator selects the variant without the OCR-fighting changes.
	OldGenerator bool
}

// NewGenerationRequest validates r and returns it.
func NewGenerationRequest(r GenerationRequest) (GenerationRequest, error) {
	if r.Wordlist == "" {
		return GenerationRequest{}, fmt.Errorf("%w: %w", ErrInvalidRequest, ErrMissingWordlist)
	}
	if r.Font == "" {
		return GenerationRequest{}, fmt.Errorf("%w: %w", ErrInvalidRequest, ErrMissingFont)
	}
	if r.Count < 0 {
		return GenerationRequest{}, fmt.Errorf("%w: %w (%d)", ErrInvalidRequest, ErrNegativeCount, r.Count)
	}
	if r.FontSize < 0 {
		r.FontSize = 0
	}
	return r, nil
}

// WithCount returns a copy of r asking for n images.
func (r GenerationRequest) WithCount(n int) GenerationRequest {
	r.Count = n
	return r
}

// Invocation is everything a generator needs for a single run.
type Invocation struct {
	Request         GenerationRequest
	OutputDir       string
	SecretKey       string
	DirectoryLevels int
}
