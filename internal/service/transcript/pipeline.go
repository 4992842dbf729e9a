package transcript

import (
	"fmt"

	"stereo-call-transcription-service/internal/models"
)

// Pipeline runs the full transcript core: validate engine output, fuse
// the two channels, optionally rewindow, restore chronological order,
// and assemble the response. It is a pure value transformation with no
// I/O; concurrent use is safe.
type Pipeline struct {
	WindowDuration   float64
	WindowOverlap    float64
	SampleRate       int
	LanguageFallback string
}

// Run fuses the two channel results into a response. The rewindowed
// return reports whether windowing replaced the engine segmentation;
// it stays false when windowing is disabled or fell back to the fused
// segments. The only error condition is a structural contract
// violation by a recognition engine (malformed timestamps or channel
// labels); everything else degrades to documented defaults.
func (p Pipeline) Run(filename, modelName string, caller, agent models.ChannelResult) (resp models.FusedResponse, rewindowed bool, err error) {
	if err := caller.Validate(); err != nil {
		return models.FusedResponse{}, false, fmt.Errorf("caller channel result: %w", err)
	}
	if err := agent.Validate(); err != nil {
		return models.FusedResponse{}, false, fmt.Errorf("agent channel result: %w", err)
	}

	segments := Fuse(caller, agent)

	// Re-sorting after rewindowing restores chronological order and
	// canonical ids; when rewindowing is disabled this is a no-op.
	windowed, rewindowed := Rewindow(segments, p.WindowDuration, p.WindowOverlap)
	segments = SortAndReindex(windowed)

	return Assemble(filename, modelName, caller, agent, segments, AssembleOptions{
		SampleRate:       p.SampleRate,
		LanguageFallback: p.LanguageFallback,
	}), rewindowed, nil
}

// WindowingEnabled reports whether the configured duration and overlap
// leave a positive window step, i.e. whether Run attempts rewindowing
// at all.
func (p Pipeline) WindowingEnabled() bool {
	return p.WindowDuration > 0 && p.WindowDuration-p.WindowOverlap > 0
}
