// Package audio de-interleaves a stereo WAV recording into two mono
// channel files, one per speaker role (Caller = left, Agent = right).
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"stereo-call-transcription-service/internal/observability/logging"
)

// Errors returned for unusable uploads.
var (
	ErrNotWAV    = errors.New("file is not a valid WAV file")
	ErrNotStereo = errors.New("audio file must be stereo (2 channels)")
)

// Splitter writes per-channel mono WAV files into a temp directory.
type Splitter struct {
	tempDir string
	log     zerolog.Logger
}

// NewSplitter creates a Splitter, creating the temp directory if needed.
func NewSplitter(tempDir string) (*Splitter, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", tempDir, err)
	}
	return &Splitter{
		tempDir: tempDir,
		log:     logging.WithComponent("audio-splitter"),
	}, nil
}

// Split decodes the stereo WAV at inputPath and writes two mono WAVs
// named after the original filename's stem. Returns the caller (left)
// and agent (right) file paths.
func (s *Splitter) Split(inputPath, filename string) (callerPath, agentPath string, err error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return "", "", fmt.Errorf("open %s: %w", inputPath, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return "", "", fmt.Errorf("%w: %s", ErrNotWAV, filename)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return "", "", fmt.Errorf("decode %s: %w", filename, err)
	}
	if dec.NumChans != 2 {
		return "", "", fmt.Errorf("%w: got %d channel(s)", ErrNotStereo, dec.NumChans)
	}

	left, right := deinterleave(buf.Data)

	s.log.Info().
		Str("filename", filename).
		Int("samplesPerChannel", len(left)).
		Uint32("sampleRate", dec.SampleRate).
		Uint16("bitDepth", dec.BitDepth).
		Msg("Split stereo file into caller and agent channels")

	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	callerPath = filepath.Join(s.tempDir, stem+"_caller.wav")
	agentPath = filepath.Join(s.tempDir, stem+"_agent.wav")

	if err := s.writeMono(callerPath, left, int(dec.SampleRate), int(dec.BitDepth)); err != nil {
		return "", "", err
	}
	if err := s.writeMono(agentPath, right, int(dec.SampleRate), int(dec.BitDepth)); err != nil {
		os.Remove(callerPath)
		return "", "", err
	}

	return callerPath, agentPath, nil
}

// Cleanup removes temp files, logging failures instead of returning them.
func (s *Splitter) Cleanup(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", p).Msg("Failed to clean up temp file")
		}
	}
}

func (s *Splitter) writeMono(path string, samples []int, sampleRate, bitDepth int) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	enc := wav.NewEncoder(out, sampleRate, bitDepth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return out.Close()
}

// deinterleave splits interleaved stereo samples [L R L R ...] into
// separate left and right sample slices.
func deinterleave(data []int) (left, right []int) {
	n := len(data) / 2
	left = make([]int, 0, n)
	right = make([]int, 0, n)
	for i := 0; i+1 < len(data); i += 2 {
		left = append(left, data[i])
		right = append(right, data[i+1])
	}
	return left, right
}
