package google

import (
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/protobuf/types/known/durationpb"

	"stereo-call-transcription-service/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LanguageCode != "th-TH" {
		t.Errorf("expected default language 'th-TH', got %s", cfg.LanguageCode)
	}
	if cfg.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.SampleRateHz)
	}
	if cfg.AudioEncoding != "LINEAR16" {
		t.Errorf("expected default encoding 'LINEAR16', got %s", cfg.AudioEncoding)
	}
}

func TestParseAudioEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16},
		{"MULAW", speechpb.RecognitionConfig_MULAW},
		{"FLAC", speechpb.RecognitionConfig_FLAC},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
		{"WEBM_OPUS", speechpb.RecognitionConfig_WEBM_OPUS},
		{"UNKNOWN", speechpb.RecognitionConfig_LINEAR16}, // fallback
		{"", speechpb.RecognitionConfig_LINEAR16},        // fallback
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseAudioEncoding(tt.input)
			if got != tt.expected {
				t.Errorf("parseAudioEncoding(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestShortLanguage(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"th-TH", "th"},
		{"en-US", "en"},
		{"th", "th"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := shortLanguage(tt.input); got != tt.want {
			t.Errorf("shortLanguage(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func dur(seconds float64) *durationpb.Duration {
	return durationpb.New(time.Duration(seconds * float64(time.Second)))
}

func TestNormalize(t *testing.T) {
	resp := &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{
				Alternatives: []*speechpb.SpeechRecognitionAlternative{
					{
						Transcript: " hello world ",
						Words: []*speechpb.WordInfo{
							{Word: "hello", StartTime: dur(0.1), EndTime: dur(0.8), Confidence: 0.92},
							{Word: "world", StartTime: dur(0.9), EndTime: dur(1.5)}, // no confidence
						},
					},
				},
				LanguageCode: "th-TH",
			},
			{
				// Result without alternatives is skipped.
			},
		},
	}

	out := normalize(resp, "en-US")

	if len(out.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(out.Segments))
	}
	seg := out.Segments[0]
	if seg.Text != "hello world" {
		t.Errorf("segment text = %q, want 'hello world'", seg.Text)
	}
	if seg.Start != 0.1 || seg.End != 1.5 {
		t.Errorf("segment bounds = %v..%v, want 0.1..1.5", seg.Start, seg.End)
	}
	if len(seg.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(seg.Words))
	}
	w := seg.Words[0]
	if w.Confidence < 0.919 || w.Confidence > 0.921 {
		t.Errorf("word confidence = %v, want ~0.92", w.Confidence)
	}
	if seg.Words[1].Confidence != models.DefaultWordConfidence {
		t.Errorf("missing confidence should fall back to %v, got %v",
			models.DefaultWordConfidence, seg.Words[1].Confidence)
	}
	if out.Language != "th" {
		t.Errorf("language = %q, want 'th'", out.Language)
	}

	if err := out.Validate(); err != nil {
		t.Errorf("normalized result failed validation: %v", err)
	}
}

func TestNormalize_EmptyResponse(t *testing.T) {
	out := normalize(&speechpb.RecognizeResponse{}, "th-TH")
	if len(out.Segments) != 0 {
		t.Errorf("expected no segments, got %d", len(out.Segments))
	}
	if out.Language != "th" {
		t.Errorf("expected fallback language 'th', got %q", out.Language)
	}
}
