package transcript

import (
	"math"
	"sort"
	"strings"

	"stereo-call-transcription-service/internal/models"
)

// wordKey identifies a word for deduplication across overlapping
// windows. Times are rounded so float noise cannot split a word into
// two identities.
type wordKey struct {
	text       string
	start, end float64
}

// Rewindow replaces the engine-determined segmentation with a uniform
// fixed-duration overlapping windowing, computed independently per
// channel from the flattened word stream.
//
// A non-positive duration, or an overlap leaving no positive step,
// disables rewindowing: the input is returned unchanged. If windowing
// selects no words at all, the input is likewise returned unchanged
// rather than producing an empty transcript. The second return value
// reports whether windowing replaced the segmentation, false on both
// fallback paths. Output segment ids are placeholders; callers re-sort
// and re-index via SortAndReindex.
func Rewindow(segments []models.Segment, duration, overlap float64) ([]models.Segment, bool) {
	step := duration - overlap
	if duration <= 0 || step <= 0 {
		return segments, false
	}

	var out []models.Segment
	for _, ch := range models.Channels() {
		out = append(out, rewindowChannel(channelWords(segments, ch), ch, duration, step)...)
	}
	if len(out) == 0 {
		return segments, false
	}
	return out, true
}

// channelWords flattens all words on one channel, sorted by start time.
func channelWords(segments []models.Segment, ch models.Channel) []models.Word {
	var words []models.Word
	for _, seg := range segments {
		for _, w := range seg.Words {
			if w.Channel == ch {
				words = append(words, w)
			}
		}
	}
	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Start < words[j].Start
	})
	return words
}

// rewindowChannel slides a window of the given duration over one
// channel's word stream, advancing by step, and emits one segment per
// window that captures at least one word.
//
// A word overlaps a window when word.start < window.end and
// word.end > window.start; a word exactly abutting a boundary is
// excluded. Because adjacent windows overlap, the first window that
// captures a word claims it; later windows skip it.
func rewindowChannel(words []models.Word, ch models.Channel, duration, step float64) []models.Segment {
	if len(words) == 0 {
		return nil
	}

	maxEnd := 0.0
	for _, w := range words {
		if w.End > maxEnd {
			maxEnd = w.End
		}
	}

	var out []models.Segment
	claimed := make(map[wordKey]bool)

	for winStart := 0.0; winStart <= maxEnd; winStart += step {
		winEnd := winStart + duration

		var selected []models.Word
		for _, w := range words {
			if w.Start >= winEnd || w.End <= winStart {
				continue
			}
			key := wordKey{text: w.Word, start: round3(w.Start), end: round3(w.End)}
			if claimed[key] {
				continue
			}
			claimed[key] = true

			w.Start = round3(w.Start)
			w.End = round3(w.End)
			w.Confidence = round2(w.Confidence)
			selected = append(selected, w)
		}
		if len(selected) == 0 {
			continue
		}

		texts := make([]string, len(selected))
		segStart := selected[0].Start
		segEnd := selected[0].End
		for i, w := range selected {
			texts[i] = w.Word
			if w.Start < segStart {
				segStart = w.Start
			}
			if w.End > segEnd {
				segEnd = w.End
			}
		}

		out = append(out, models.Segment{
			ID:      0, // reassigned by SortAndReindex on re-merge
			Start:   segStart,
			End:     segEnd,
			Text:    strings.Join(texts, " "),
			Channel: ch,
			Words:   selected,
		})
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
