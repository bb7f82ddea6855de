package transcript

import (
	"context"
	"fmt"
)

// StaticProvider serves canned results keyed by file path. Used in tests
// and dry runs where no transcription backend is configured.
type StaticProvider struct {
	Results map[string]Result
}

func (p *StaticProvider) Transcribe(_ context.Context, path string) (Result, error) {
	res, ok := p.Results[path]
	if !ok {
		return Result{}, fmt.Errorf("no canned transcript for %s", path)
	}
	return res, nil
}
