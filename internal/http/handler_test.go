package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"stereo-call-transcription-service/internal/config"
	"stereo-call-transcription-service/internal/events"
	"stereo-call-transcription-service/internal/models"
	"stereo-call-transcription-service/internal/observability/metrics"
	"stereo-call-transcription-service/internal/service/asr"
	"stereo-call-transcription-service/internal/service/asr/mock"
	"stereo-call-transcription-service/internal/service/audio"
)

func testConfig(t *testing.T) *config.Configuration {
	t.Helper()
	return &config.Configuration{
		Service: config.ServiceConfig{Name: "test"},
		Upload: config.UploadConfig{
			TempPath:      t.TempDir(),
			MaxFileSizeMB: 1,
			MaxFileSize:   1 * 1024 * 1024,
		},
		ASR: config.ASRConfig{
			SupportedModels: []string{"mock"},
			DefaultModel:    "mock",
			Language:        "th",
			SampleRateHz:    8000,
		},
		Windowing: config.WindowingConfig{DurationSec: 0, OverlapSec: 0},
		Kafka:     config.KafkaConfig{Enabled: false, Topic: "transcription.completed"},
	}
}

func newTestRouter(t *testing.T, cfg *config.Configuration) http.Handler {
	t.Helper()
	splitter, err := audio.NewSplitter(cfg.Upload.TempPath)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}
	registry := asr.NewRegistry(mock.New())
	publisher := events.New(&events.Config{Enabled: false, Topic: cfg.Kafka.Topic})
	return NewRouter(NewTranscribeHandler(cfg, splitter, registry, publisher))
}

// stereoWAVBytes renders a small stereo PCM WAV in memory.
func stereoWAVBytes(t *testing.T) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	enc := wav.NewEncoder(f, 8000, 16, 2, 1)
	data := make([]int, 1600) // 100ms of interleaved stereo
	for i := range data {
		data[i] = (i % 64) - 32
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close fixture encoder: %v", err)
	}
	f.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return raw
}

func multipartBody(t *testing.T, filename string, fileBytes []byte, model string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(fileBytes); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if model != "" {
		if err := mw.WriteField("model", model); err != nil {
			t.Fatalf("write model field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func TestTranscribe_EndToEnd(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	body, contentType := multipartBody(t, "call.wav", stereoWAVBytes(t), "mock")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp models.FusedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Filename != "call.wav" {
		t.Errorf("filename = %q", resp.Filename)
	}
	if resp.ModelName != "mock" {
		t.Errorf("model_name = %q", resp.ModelName)
	}
	if resp.Status != models.StatusCompleted {
		t.Errorf("status = %q", resp.Status)
	}
	if len(resp.Segments) == 0 || len(resp.Words) == 0 {
		t.Fatalf("expected non-empty transcript, got %d segments, %d words",
			len(resp.Segments), len(resp.Words))
	}
	for i, seg := range resp.Segments {
		if seg.ID != i {
			t.Errorf("segment %d has id %d", i, seg.ID)
		}
		if i > 0 && resp.Segments[i-1].Start > seg.Start {
			t.Errorf("segments out of chronological order at %d", i)
		}
	}
	if resp.Language == "" || resp.Duration <= 0 {
		t.Errorf("language=%q duration=%v", resp.Language, resp.Duration)
	}
	if resp.TranscriptText == "" || resp.TranscriptSimpleText == "" {
		t.Error("expected rendered transcript text views")
	}

	// The mock engine keys its scripts off the split-file suffixes, so
	// channel assignment is stable across the concurrent engine calls.
	if resp.Segments[0].Channel != models.ChannelCaller {
		t.Errorf("first segment channel = %s, want Caller", resp.Segments[0].Channel)
	}
	if resp.Segments[0].Text != mock.DefaultScripts[0].Phrases[0] {
		t.Errorf("caller segment text = %q, want %q", resp.Segments[0].Text, mock.DefaultScripts[0].Phrases[0])
	}
}

func TestTranscribe_RecordsRewindowMetric(t *testing.T) {
	cfg := testConfig(t)
	cfg.Windowing = config.WindowingConfig{DurationSec: 30, OverlapSec: 3}
	router := newTestRouter(t, cfg)

	before := testutil.ToFloat64(metrics.DefaultMetrics.RewindowApplied)

	body, contentType := multipartBody(t, "call.wav", stereoWAVBytes(t), "mock")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := testutil.ToFloat64(metrics.DefaultMetrics.RewindowApplied) - before; got != 1 {
		t.Errorf("rewindow applied counter delta = %v, want 1", got)
	}
}

func TestTranscribe_DefaultsModelWhenOmitted(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	body, contentType := multipartBody(t, "call.wav", stereoWAVBytes(t), "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp models.FusedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ModelName != "mock" {
		t.Errorf("model_name = %q, want default 'mock'", resp.ModelName)
	}
}

func TestTranscribe_UnknownModel(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	body, contentType := multipartBody(t, "call.wav", stereoWAVBytes(t), "typhoon")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTranscribe_RejectsNonWAVExtension(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	body, contentType := multipartBody(t, "call.mp3", []byte("not audio"), "mock")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTranscribe_RejectsMonoFile(t *testing.T) {
	cfg := testConfig(t)
	router := newTestRouter(t, cfg)

	path := filepath.Join(t.TempDir(), "mono.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           []int{1, 2, 3, 4},
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	f.Close()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	body, contentType := multipartBody(t, "mono.wav", raw, "mock")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for mono input", rec.Code)
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", "mock"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTranscribe_CleansUpTempFiles(t *testing.T) {
	cfg := testConfig(t)
	router := newTestRouter(t, cfg)

	body, contentType := multipartBody(t, "call.wav", stereoWAVBytes(t), "mock")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	entries, err := os.ReadDir(cfg.Upload.TempPath)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("temp files left behind: %v", names)
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload struct {
		Status  string   `json:"status"`
		Engines []string `json:"engines"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Status != "healthy" {
		t.Errorf("status = %q", payload.Status)
	}
	if len(payload.Engines) != 1 || payload.Engines[0] != "mock" {
		t.Errorf("engines = %v", payload.Engines)
	}
}
