package audio

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV writes a PCM WAV file with the given interleaved samples.
func writeWAV(t *testing.T, path string, numChans int, data []int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 8000, 16, numChans, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: numChans, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder %s: %v", path, err)
	}
}

// readWAV decodes a WAV file and returns its samples and channel count.
func readWAV(t *testing.T, path string) ([]int, int) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("%s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return buf.Data, int(dec.NumChans)
}

func TestSplit_Stereo(t *testing.T) {
	dir := t.TempDir()
	sp, err := NewSplitter(dir)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	// Interleaved L/R: left ramps up, right ramps down.
	stereo := []int{100, -100, 200, -200, 300, -300, 400, -400}
	input := filepath.Join(dir, "call.wav")
	writeWAV(t, input, 2, stereo)

	callerPath, agentPath, err := sp.Split(input, "call.wav")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	if filepath.Base(callerPath) != "call_caller.wav" {
		t.Errorf("unexpected caller path: %s", callerPath)
	}
	if filepath.Base(agentPath) != "call_agent.wav" {
		t.Errorf("unexpected agent path: %s", agentPath)
	}

	left, chans := readWAV(t, callerPath)
	if chans != 1 {
		t.Errorf("caller file has %d channels, want 1", chans)
	}
	wantLeft := []int{100, 200, 300, 400}
	if len(left) != len(wantLeft) {
		t.Fatalf("caller samples = %v, want %v", left, wantLeft)
	}
	for i := range wantLeft {
		if left[i] != wantLeft[i] {
			t.Errorf("caller sample %d = %d, want %d", i, left[i], wantLeft[i])
		}
	}

	right, chans := readWAV(t, agentPath)
	if chans != 1 {
		t.Errorf("agent file has %d channels, want 1", chans)
	}
	wantRight := []int{-100, -200, -300, -400}
	for i := range wantRight {
		if right[i] != wantRight[i] {
			t.Errorf("agent sample %d = %d, want %d", i, right[i], wantRight[i])
		}
	}
}

func TestSplit_RejectsMono(t *testing.T) {
	dir := t.TempDir()
	sp, err := NewSplitter(dir)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	input := filepath.Join(dir, "mono.wav")
	writeWAV(t, input, 1, []int{1, 2, 3, 4})

	if _, _, err := sp.Split(input, "mono.wav"); err == nil {
		t.Error("expected error for mono input")
	}
}

func TestSplit_RejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	sp, err := NewSplitter(dir)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	input := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(input, []byte("definitely not a wav"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	if _, _, err := sp.Split(input, "garbage.wav"); err == nil {
		t.Error("expected error for non-WAV input")
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	sp, err := NewSplitter(dir)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	p := filepath.Join(dir, "junk.wav")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Missing files and empty paths must not panic.
	sp.Cleanup(p, filepath.Join(dir, "missing.wav"), "")

	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("expected %s removed", p)
	}
}

func TestDeinterleave_OddTrailingSample(t *testing.T) {
	left, right := deinterleave([]int{1, 2, 3, 4, 5})
	if len(left) != 2 || len(right) != 2 {
		t.Errorf("expected trailing sample dropped, got left=%v right=%v", left, right)
	}
}
