// Package transcript implements the transcript fusion and rewindowing
// pipeline: merging two per-channel recognition results into one
// chronologically ordered transcript with derived summary fields.
package transcript

import (
	"sort"

	"stereo-call-transcription-service/internal/models"
)

// Fuse merges the caller and agent channel results into one sequence
// sorted by ascending start time, with segment ids reassigned to the
// position in the sorted order. Every segment and word is stamped with
// its channel. Inputs are not mutated; the output holds fresh values.
//
// Ties on start time keep caller-before-agent input order (stable
// sort). Simultaneous starts on different channels are common
// cross-talk and must not be reordered nondeterministically.
func Fuse(caller, agent models.ChannelResult) []models.Segment {
	fused := make([]models.Segment, 0, len(caller.Segments)+len(agent.Segments))
	fused = append(fused, stamp(caller.Segments, models.ChannelCaller)...)
	fused = append(fused, stamp(agent.Segments, models.ChannelAgent)...)
	return SortAndReindex(fused)
}

// SortAndReindex stable-sorts segments by start time and rewrites each
// segment id to its 0-based position. Used by Fuse and again after
// rewindowing to restore canonical order.
func SortAndReindex(segments []models.Segment) []models.Segment {
	out := make([]models.Segment, len(segments))
	copy(out, segments)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	for i := range out {
		out[i].ID = i
	}
	return out
}

// stamp copies segments, labeling each segment and each contained word
// with the channel.
func stamp(segments []models.Segment, ch models.Channel) []models.Segment {
	out := make([]models.Segment, len(segments))
	for i, seg := range segments {
		words := make([]models.Word, len(seg.Words))
		for j, w := range seg.Words {
			w.Channel = ch
			words[j] = w
		}
		seg.Channel = ch
		seg.Words = words
		out[i] = seg
	}
	return out
}
