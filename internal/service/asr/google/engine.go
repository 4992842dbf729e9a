// Package google provides a recognition engine backed by Google Cloud
// Speech-to-Text batch recognition.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"stereo-call-transcription-service/internal/models"
)

// Config holds recognition parameters for the Google engine.
type Config struct {
	LanguageCode  string
	SampleRateHz  int32
	AudioEncoding string
}

// DefaultConfig returns the default recognition parameters.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "th-TH",
		SampleRateHz:  16000,
		AudioEncoding: "LINEAR16",
	}
}

// Engine implements asr.Engine using Google Cloud Speech-to-Text.
type Engine struct {
	client *speech.Client
	cfg    Config
}

// New creates a new Google recognition engine.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &Engine{client: c, cfg: cfg}, nil
}

// Name returns the model name used to select this engine.
func (e *Engine) Name() string { return "google" }

// Transcribe runs batch recognition with word time offsets and word
// confidence enabled, and normalizes the response into a ChannelResult.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (*models.ChannelResult, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio %s: %w", audioPath, err)
	}

	resp, err := e.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              parseAudioEncoding(e.cfg.AudioEncoding),
			SampleRateHertz:       e.cfg.SampleRateHz,
			LanguageCode:          e.cfg.LanguageCode,
			EnableWordTimeOffsets: true,
			EnableWordConfidence:  true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	return normalize(resp, e.cfg.LanguageCode), nil
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	return e.client.Close()
}

// normalize converts a Google recognition response into the engine
// output contract: one segment per recognition result, word times in
// seconds, and the fallback confidence where Google reports none.
func normalize(resp *speechpb.RecognizeResponse, defaultLanguage string) *models.ChannelResult {
	result := &models.ChannelResult{
		Segments:            []models.Segment{},
		Language:            shortLanguage(defaultLanguage),
		LanguageProbability: 1.0,
	}

	for i, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		alt := r.GetAlternatives()[0]

		words := make([]models.Word, 0, len(alt.GetWords()))
		for _, w := range alt.GetWords() {
			conf := float64(w.GetConfidence())
			if conf == 0 {
				conf = models.DefaultWordConfidence
			}
			words = append(words, models.Word{
				Word:       strings.TrimSpace(w.GetWord()),
				Start:      w.GetStartTime().AsDuration().Seconds(),
				End:        w.GetEndTime().AsDuration().Seconds(),
				Confidence: conf,
			})
		}

		seg := models.Segment{
			ID:    i,
			Text:  strings.TrimSpace(alt.GetTranscript()),
			Words: words,
		}
		if len(words) > 0 {
			seg.Start = words[0].Start
			seg.End = words[len(words)-1].End
		}
		result.Segments = append(result.Segments, seg)

		if lang := r.GetLanguageCode(); lang != "" {
			result.Language = shortLanguage(lang)
		}
	}

	return result
}

// shortLanguage reduces a BCP-47 tag like "th-TH" to its base language.
func shortLanguage(code string) string {
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}

func parseAudioEncoding(s string) speechpb.RecognitionConfig_AudioEncoding {
	switch s {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
