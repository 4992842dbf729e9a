package transcript

import (
	"fmt"
	"strings"
	"time"

	"stereo-call-transcription-service/internal/models"
)

// AssembleOptions carries the configuration the assembler passes
// through into metadata and its fallbacks.
type AssembleOptions struct {
	SampleRate       int
	LanguageFallback string
}

// Assemble derives the flattened word list, duration, language, and
// text renderings from the final segment sequence and packages the
// response envelope. Derived fields never fail: missing inputs fall
// back to their documented defaults.
func Assemble(filename, modelName string, caller, agent models.ChannelResult, segments []models.Segment, opts AssembleOptions) models.FusedResponse {
	startedAt := time.Now().UTC()

	words := flattenWords(segments)
	duration := round3(computeDuration(segments, words))
	language := pickLanguage(caller, agent, opts.LanguageFallback)
	detailed, simple := renderText(segments)

	completedAt := time.Now().UTC()

	return models.FusedResponse{
		Message:              fmt.Sprintf("Successfully processed %s", filename),
		Filename:             filename,
		ModelName:            modelName,
		Status:               models.StatusCompleted,
		Segments:             segments,
		Words:                words,
		Language:             language,
		Duration:             duration,
		TranscriptText:       detailed,
		TranscriptSimpleText: simple,
		Metadata: models.Metadata{
			Language: language,
			Duration: duration,
			ProcessingInfo: models.ProcessingInfo{
				StartedAt:        startedAt,
				CompletedAt:      completedAt,
				CorrectionPasses: 0,
				RerunCount:       0,
			},
			AudioInfo: models.AudioInfo{
				Channels:   2,
				SampleRate: opts.SampleRate,
				Duration:   duration,
				Format:     "wav",
				Codec:      "pcm_s16le",
			},
		},
		GeneratedAt: completedAt,
	}
}

// flattenWords collects all words in segment order. Words are not
// independently re-sorted; they follow their parent segments.
func flattenWords(segments []models.Segment) []models.Word {
	words := make([]models.Word, 0)
	for _, seg := range segments {
		words = append(words, seg.Words...)
	}
	return words
}

// computeDuration is the max word end time, falling back to the max
// segment end time when no words exist, and 0 for an empty transcript.
func computeDuration(segments []models.Segment, words []models.Word) float64 {
	if len(words) > 0 {
		max := 0.0
		for _, w := range words {
			if w.End > max {
				max = w.End
			}
		}
		return max
	}
	max := 0.0
	for _, seg := range segments {
		if seg.End > max {
			max = seg.End
		}
	}
	return max
}

// pickLanguage prefers the caller's reported language, then the
// agent's, then the configured fallback.
func pickLanguage(caller, agent models.ChannelResult, fallback string) string {
	if caller.Language != "" {
		return caller.Language
	}
	if agent.Language != "" {
		return agent.Language
	}
	return fallback
}

// renderText produces the detailed and simplified transcript views.
// Segments with empty or whitespace-only text are skipped in both.
func renderText(segments []models.Segment) (detailed, simple string) {
	var det, sim []string
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		det = append(det, fmt.Sprintf("[%.2f --> %.2f] [%s]: %s", seg.Start, seg.End, seg.Channel, text))
		sim = append(sim, fmt.Sprintf("[%s]: %s", seg.Channel, text))
	}
	return strings.Join(det, "\n"), strings.Join(sim, "\n")
}
