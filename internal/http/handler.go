package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stereo-call-transcription-service/internal/config"
	"stereo-call-transcription-service/internal/events"
	"stereo-call-transcription-service/internal/models"
	"stereo-call-transcription-service/internal/observability/logging"
	"stereo-call-transcription-service/internal/observability/metrics"
	"stereo-call-transcription-service/internal/service/asr"
	"stereo-call-transcription-service/internal/service/audio"
	"stereo-call-transcription-service/internal/service/transcript"
)

// multipartMemoryLimit bounds the in-memory part of multipart parsing;
// larger uploads spill to disk.
const multipartMemoryLimit = 32 << 20

// TranscribeHandler serves the transcription API. It coordinates the
// upload, channel split, the two concurrent engine calls, the
// transcript core, and the completion event.
type TranscribeHandler struct {
	cfg       *config.Configuration
	splitter  *audio.Splitter
	engines   *asr.Registry
	pipeline  transcript.Pipeline
	publisher *events.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewTranscribeHandler wires the handler's collaborators.
func NewTranscribeHandler(
	cfg *config.Configuration,
	splitter *audio.Splitter,
	engines *asr.Registry,
	publisher *events.Publisher,
) *TranscribeHandler {
	return &TranscribeHandler{
		cfg:      cfg,
		splitter: splitter,
		engines:  engines,
		pipeline: transcript.Pipeline{
			WindowDuration:   cfg.Windowing.DurationSec,
			WindowOverlap:    cfg.Windowing.OverlapSec,
			SampleRate:       cfg.ASR.SampleRateHz,
			LanguageFallback: cfg.ASR.Language,
		},
		publisher: publisher,
		metrics:   metrics.DefaultMetrics,
		log:       logging.WithComponent("transcribe-handler"),
	}
}

// Health reports service status and the registered engines.
func (h *TranscribeHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"engines": h.engines.Names(),
	})
}

// Transcribe handles POST /api/v1/transcribe: a multipart form with a
// stereo WAV under "file" and an engine name under "model".
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.metrics.RecordRequestStart()
	success := false
	defer func() {
		h.metrics.RecordRequestEnd(success, time.Since(start).Seconds())
	}()

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxFileSize+multipartMemoryLimit)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.metrics.RecordUploadRejected("bad_multipart")
		writeError(w, http.StatusBadRequest, "invalid multipart request", err.Error())
		return
	}

	modelName := strings.ToLower(r.FormValue("model"))
	if modelName == "" {
		modelName = h.cfg.ASR.DefaultModel
	}
	engine, err := h.engines.Get(modelName)
	if err != nil {
		h.metrics.RecordUploadRejected("unknown_model")
		writeError(w, http.StatusBadRequest, "invalid model", err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.metrics.RecordUploadRejected("missing_file")
		writeError(w, http.StatusBadRequest, "missing file upload", err.Error())
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".wav") {
		h.metrics.RecordUploadRejected("not_wav")
		writeError(w, http.StatusBadRequest, "only WAV files are supported", header.Filename)
		return
	}
	if header.Size > h.cfg.Upload.MaxFileSize {
		h.metrics.RecordUploadRejected("too_large")
		writeError(w, http.StatusRequestEntityTooLarge, "file too large",
			fmt.Sprintf("max size: %dMB", h.cfg.Upload.MaxFileSizeMB))
		return
	}

	uploadID := uuid.New().String()
	reqLog := logging.WithRequest(uploadID, header.Filename, modelName)

	uploadPath := filepath.Join(h.cfg.Upload.TempPath, uploadID+"_"+filepath.Base(header.Filename))
	written, err := saveUpload(uploadPath, file)
	if err != nil {
		reqLog.Error().Err(err).Msg("Failed to save upload")
		writeError(w, http.StatusInternalServerError, "failed to save upload", err.Error())
		return
	}
	defer h.splitter.Cleanup(uploadPath)
	h.metrics.RecordUpload(written)

	reqLog.Info().Int("bytes", written).Msg("Saved uploaded file")

	callerPath, agentPath, err := h.splitter.Split(uploadPath, header.Filename)
	if err != nil {
		reqLog.Error().Err(err).Msg("Failed to split stereo file")
		status := http.StatusInternalServerError
		if errors.Is(err, audio.ErrNotStereo) || errors.Is(err, audio.ErrNotWAV) {
			h.metrics.RecordUploadRejected("bad_audio")
			status = http.StatusBadRequest
		}
		writeError(w, status, "failed to process audio", err.Error())
		return
	}
	defer h.splitter.Cleanup(callerPath, agentPath)

	callerResult, agentResult, err := h.transcribeChannels(r.Context(), engine, uploadID, callerPath, agentPath)
	if err != nil {
		reqLog.Error().Err(err).Msg("Recognition failed")
		writeError(w, http.StatusInternalServerError, "transcription failed", err.Error())
		return
	}

	resp, rewindowed, err := h.pipeline.Run(header.Filename, modelName, *callerResult, *agentResult)
	if err != nil {
		// Structural contract violation by the engine; do not fabricate
		// plausible-looking output from it.
		reqLog.Error().Err(err).Msg("Engine returned malformed result")
		writeError(w, http.StatusBadGateway, "recognition engine returned malformed result", err.Error())
		return
	}
	h.metrics.RecordFusion(len(resp.Segments), len(resp.Words))
	if h.pipeline.WindowingEnabled() {
		h.metrics.RecordRewindow(rewindowed)
	}

	h.publishCompleted(r.Context(), resp)

	reqLog.Info().
		Int("segments", len(resp.Segments)).
		Int("words", len(resp.Words)).
		Float64("duration", resp.Duration).
		Msg("Transcription completed")

	success = true
	writeJSON(w, http.StatusOK, resp)
}

// transcribeChannels runs the two independent engine calls
// concurrently and waits for both results.
func (h *TranscribeHandler) transcribeChannels(
	ctx context.Context,
	engine asr.Engine,
	uploadID, callerPath, agentPath string,
) (callerResult, agentResult *models.ChannelResult, err error) {
	var (
		wg        sync.WaitGroup
		callerErr error
		agentErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		callerResult, callerErr = h.transcribeOne(ctx, engine, uploadID, models.ChannelCaller, callerPath)
	}()
	go func() {
		defer wg.Done()
		agentResult, agentErr = h.transcribeOne(ctx, engine, uploadID, models.ChannelAgent, agentPath)
	}()
	wg.Wait()

	if callerErr != nil {
		return nil, nil, fmt.Errorf("caller channel: %w", callerErr)
	}
	if agentErr != nil {
		return nil, nil, fmt.Errorf("agent channel: %w", agentErr)
	}
	return callerResult, agentResult, nil
}

func (h *TranscribeHandler) transcribeOne(
	ctx context.Context,
	engine asr.Engine,
	uploadID string,
	ch models.Channel,
	path string,
) (*models.ChannelResult, error) {
	engLog := logging.WithEngine(uploadID, engine.Name(), string(ch))
	start := time.Now()

	result, err := engine.Transcribe(ctx, path)
	h.metrics.RecordEngineCall(engine.Name(), err, time.Since(start).Seconds())
	if err != nil {
		engLog.Error().Err(err).Msg("Engine call failed")
		return nil, err
	}

	engLog.Info().
		Int("segments", len(result.Segments)).
		Str("language", result.Language).
		Dur("elapsed", time.Since(start)).
		Msg("Channel transcribed")
	return result, nil
}

// publishCompleted emits the completion event; failures are logged,
// never surfaced to the client.
func (h *TranscribeHandler) publishCompleted(ctx context.Context, resp models.FusedResponse) {
	ev := events.CompletedEvent{
		EventType:    events.EventTypeCompleted,
		Filename:     resp.Filename,
		ModelName:    resp.ModelName,
		Language:     resp.Language,
		Duration:     resp.Duration,
		SegmentCount: len(resp.Segments),
		WordCount:    len(resp.Words),
		Timestamp:    time.Now().UnixMilli(),
	}
	if err := h.publisher.PublishCompleted(ctx, resp.Filename, ev); err != nil {
		h.log.Warn().Err(err).Str("filename", resp.Filename).Msg("Failed to publish completion event")
	}
}

func saveUpload(path string, src io.Reader) (int, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return int(n), nil
}
