// Package asr defines the interface for recognition engines.
package asr

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"stereo-call-transcription-service/internal/models"
)

// ErrUnknownEngine is returned when a requested engine is not registered.
var ErrUnknownEngine = errors.New("unknown recognition engine")

// Engine transcribes one mono audio file into a normalized ChannelResult.
// Implementations must return segments ordered by start time, with
// word-level timestamps where the underlying provider supplies them.
// Engines are injected explicitly; there is no ambient global instance.
type Engine interface {
	// Name returns the model name used to select this engine.
	Name() string

	// Transcribe runs recognition on the audio file at audioPath.
	Transcribe(ctx context.Context, audioPath string) (*models.ChannelResult, error)
}

// Registry maps model names to engines.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry creates a registry with the given engines.
func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{engines: make(map[string]Engine, len(engines))}
	for _, e := range engines {
		r.engines[e.Name()] = e
	}
	return r
}

// Get returns the engine registered under name.
func (r *Registry) Get(name string) (Engine, error) {
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownEngine, name, r.Names())
	}
	return e, nil
}

// Names returns the registered engine names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for n := range r.engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
