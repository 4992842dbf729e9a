package models

import "time"

// StatusCompleted is the fixed success status carried in responses.
const StatusCompleted = "completed"

// ProcessingInfo describes the assembly step itself. The correction
// counters stay at zero: this service performs no correction passes.
type ProcessingInfo struct {
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
	CorrectionPasses int       `json:"correction_passes"`
	RerunCount       int       `json:"rerun_count"`
}

// AudioInfo describes the source recording.
type AudioInfo struct {
	Channels   int     `json:"channels"`
	SampleRate int     `json:"sample_rate"`
	Duration   float64 `json:"duration"`
	Format     string  `json:"format"`
	Codec      string  `json:"codec"`
}

// Metadata bundles derived transcript facts with processing and audio info.
type Metadata struct {
	Language       string         `json:"language"`
	Duration       float64        `json:"duration"`
	ProcessingInfo ProcessingInfo `json:"processing_info"`
	AudioInfo      AudioInfo      `json:"audio_info"`
}

// FusedResponse is the final response envelope returned by the
// transcription endpoint. Segments are in chronological order with
// ids 0..n-1; Words is the flattened word list in segment order.
type FusedResponse struct {
	Message              string    `json:"message"`
	Filename             string    `json:"filename"`
	ModelName            string    `json:"model_name"`
	Status               string    `json:"status"`
	Segments             []Segment `json:"segments"`
	Words                []Word    `json:"words"`
	Language             string    `json:"language"`
	Duration             float64   `json:"duration"`
	TranscriptText       string    `json:"transcript_text"`
	TranscriptSimpleText string    `json:"transcript_simple_text"`
	Metadata             Metadata  `json:"metadata"`
	GeneratedAt          time.Time `json:"generated_at"`
}
