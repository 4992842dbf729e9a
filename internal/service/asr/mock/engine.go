// Package mock provides a deterministic recognition engine for local
// development and tests without cloud credentials.
package mock

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"stereo-call-transcription-service/internal/models"
)

// Script is a canned per-channel transcription result.
type Script struct {
	Phrases    []string  // one phrase per segment
	Starts     []float64 // segment start times, parallel to Phrases
	WordLength float64   // duration assigned to each word
	Language   string
}

// DefaultScripts provides two alternating scripts so the caller and
// agent channels of one request get different, overlapping transcripts.
var DefaultScripts = []Script{
	{
		Phrases:    []string{"hello I would like to check my balance", "yes the savings account please"},
		Starts:     []float64{0.0, 6.0},
		WordLength: 0.4,
		Language:   "th",
	},
	{
		Phrases:    []string{"good morning how can I help you", "one moment while I look that up"},
		Starts:     []float64{1.0, 7.0},
		WordLength: 0.4,
		Language:   "th",
	},
}

// Engine implements asr.Engine with scripted responses. Paths produced
// by the channel splitter (ending in _caller or _agent) always map to
// the same script, so concurrent per-channel calls stay deterministic;
// other paths consume scripts in round-robin order.
type Engine struct {
	mu      sync.Mutex
	scripts []Script
	next    int
}

// New creates a mock engine cycling through the default scripts.
func New() *Engine {
	return NewWithScripts(DefaultScripts)
}

// NewWithScripts creates a mock engine with custom scripts.
func NewWithScripts(scripts []Script) *Engine {
	return &Engine{scripts: scripts}
}

// Name returns the model name used to select this engine.
func (e *Engine) Name() string { return "mock" }

// Transcribe ignores the audio content and returns a script selected
// by the path's channel suffix, rendered as a ChannelResult with
// evenly spaced word timestamps.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (*models.ChannelResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	script := e.pick(audioPath)

	result := &models.ChannelResult{
		Segments:            []models.Segment{},
		Language:            script.Language,
		LanguageProbability: 1.0,
	}

	for i, phrase := range script.Phrases {
		start := 0.0
		if i < len(script.Starts) {
			start = script.Starts[i]
		}

		tokens := strings.Fields(phrase)
		words := make([]models.Word, 0, len(tokens))
		cursor := start
		for _, tok := range tokens {
			words = append(words, models.Word{
				Word:       tok,
				Start:      cursor,
				End:        cursor + script.WordLength,
				Confidence: models.DefaultWordConfidence,
			})
			cursor += script.WordLength
		}

		seg := models.Segment{
			ID:    i,
			Start: start,
			Text:  phrase,
			Words: words,
		}
		if len(words) > 0 {
			seg.End = words[len(words)-1].End
		} else {
			seg.End = start
		}
		result.Segments = append(result.Segments, seg)
	}

	return result, nil
}

// pick maps the splitter's _caller/_agent file suffixes to fixed
// scripts; any other path falls back to round-robin.
func (e *Engine) pick(audioPath string) Script {
	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	switch {
	case strings.HasSuffix(stem, "_caller"):
		return e.scripts[0]
	case strings.HasSuffix(stem, "_agent"):
		return e.scripts[1%len(e.scripts)]
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	script := e.scripts[e.next%len(e.scripts)]
	e.next++
	return script
}
