package alerts

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnrecognizedFormat is returned when a payload matches no known shape and is
// not a valid canonical alert either
var ErrUnrecognizedFormat = errors.New("unrecognized alert format")

// Result is the outcome of normalizing one payload
type Result struct {
	Kind  SourceKind
	Input AlertInput
	// Transformed is false when the payload was already canonical
	Transformed bool
}

// Normalizer detects the payload shape and maps it onto an AlertInput.
// The canonical check always runs first, then adapters in the order given.
// The first match wins.
type Normalizer struct {
	adapters []AlertAdapter
}

// NewNormalizer creates a normalizer with a fixed adapter priority chain
func NewNormalizer(adapters ...AlertAdapter) *Normalizer {
	return &Normalizer{adapters: adapters}
}

// SourceKinds returns the detectable kinds in priority order
func (n *Normalizer) SourceKinds() []SourceKind {
	kinds := []SourceKind{SourceCanonical}
	for _, a := range n.adapters {
		kinds = append(kinds, a.GetSourceType())
	}
	return kinds
}

// Normalize classifies payload and returns its canonical form. When nothing
// matches, the error wraps both ErrUnrecognizedFormat and the *ValidationError
// explaining why the payload is not canonical.
func (n *Normalizer) Normalize(payload map[string]interface{}, receivedAt time.Time) (*Result, error) {
	input, canonicalErr := ParseCanonical(payload, receivedAt)
	if canonicalErr == nil {
		return &Result{Kind: SourceCanonical, Input: input}, nil
	}

	for _, adapter := range n.adapters {
		if !adapter.Matches(payload) {
			continue
		}
		input := Finalize(adapter.Normalize(payload, receivedAt))
		if !input.Severity.IsValid() {
			input.Severity = MapSeverity(string(input.Severity), "", adapter.GetSourceType())
		}
		return &Result{
			Kind:        adapter.GetSourceType(),
			Input:       input,
			Transformed: true,
		}, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrUnrecognizedFormat, canonicalErr)
}
