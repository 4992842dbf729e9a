// Package models defines the data structures exchanged between the
// recognition engines, the transcript core, and the HTTP layer.
package models

import (
	"errors"
	"fmt"
)

// Channel identifies which speaker track a word or segment belongs to.
type Channel string

const (
	// ChannelCaller is the left channel of the stereo recording.
	ChannelCaller Channel = "Caller"
	// ChannelAgent is the right channel of the stereo recording.
	ChannelAgent Channel = "Agent"
)

// Channels lists the valid channels in Caller-then-Agent order.
// The order matters: language selection and rewindow grouping iterate it.
func Channels() []Channel {
	return []Channel{ChannelCaller, ChannelAgent}
}

// ParseChannel converts a string into a Channel.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelCaller:
		return ChannelCaller, nil
	case ChannelAgent:
		return ChannelAgent, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}
}

// DefaultWordConfidence is substituted when an engine reports no
// per-word confidence.
const DefaultWordConfidence = 0.95

// Validation errors. These indicate a contract violation by the
// recognition engine and must not be silently repaired.
var (
	ErrInvalidTimestamps = errors.New("word end time before start time")
	ErrInvalidChannel    = errors.New("invalid channel label")
)

// Word is the atomic transcription unit. Times are seconds from the
// start of the recording. Channel is empty until fusion stamps it.
type Word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Channel    Channel `json:"channel,omitempty"`
}

// Validate checks the structural invariants of a word.
func (w Word) Validate() error {
	if w.End < w.Start {
		return fmt.Errorf("%w: word %q start=%.3f end=%.3f", ErrInvalidTimestamps, w.Word, w.Start, w.End)
	}
	if w.Channel != "" {
		if _, err := ParseChannel(string(w.Channel)); err != nil {
			return err
		}
	}
	return nil
}

// Segment is an ordered grouping of contiguous words on one channel.
// IDs are meaningful only within a single response; fusion reassigns
// them to the segment's position in the final chronological order.
type Segment struct {
	ID      int     `json:"id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Channel Channel `json:"channel,omitempty"`
	Words   []Word  `json:"words"`
}

// Validate checks the segment and every contained word.
func (s Segment) Validate() error {
	if s.End < s.Start {
		return fmt.Errorf("%w: segment %d start=%.3f end=%.3f", ErrInvalidTimestamps, s.ID, s.Start, s.End)
	}
	if s.Channel != "" {
		if _, err := ParseChannel(string(s.Channel)); err != nil {
			return err
		}
	}
	for _, w := range s.Words {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", s.ID, err)
		}
	}
	return nil
}

// ChannelResult is the normalized output of one recognition engine run
// on a single mono channel. Segments are ordered by start time. The
// channel label is assigned by the fusion step, not by the engine.
type ChannelResult struct {
	Segments            []Segment `json:"segments"`
	Language            string    `json:"language"`
	LanguageProbability float64   `json:"language_probability"`
}

// Validate checks every segment in the result. A missing language or
// missing word list is not an error; malformed timestamps are.
func (r ChannelResult) Validate() error {
	for _, s := range r.Segments {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
