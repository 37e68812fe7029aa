package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plune/chzzk-clip/internal/config"
	"github.com/plune/chzzk-clip/internal/models"
)

type fakeExtractor struct {
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, videoPath, audioPath string) error {
	f.calls++
	return os.WriteFile(audioPath, []byte("pcm"), 0o644)
}

type fakeTranscriber struct {
	segments []models.TranscriptSegment
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error) {
	return f.segments, nil
}

type fakeDiarizer struct {
	turns []models.SpeakerTurn
}

func (f *fakeDiarizer) Diarize(ctx context.Context, audioPath string) ([]models.SpeakerTurn, error) {
	return f.turns, nil
}

func TestTranscribe_WritesTextTranscript(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "clip.mp4")

	extractor := &fakeExtractor{}
	a := &App{
		conf:  &config.Config{},
		audio: extractor,
		transcriber: &fakeTranscriber{segments: []models.TranscriptSegment{
			{Start: 0, End: 2, Text: "hello"},
		}},
	}

	path, err := a.transcribe(context.Background(), videoPath)
	if err != nil {
		t.Fatalf("transcribe returned error: %v", err)
	}
	if !strings.HasSuffix(path, "_transcript.txt") {
		t.Fatalf("path = %q, want _transcript.txt suffix", path)
	}
	if extractor.calls != 1 {
		t.Fatalf("extractor calls = %d", extractor.calls)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[00:00:00] hello\n" {
		t.Fatalf("transcript = %q", data)
	}

	// The intermediate audio file is temporary.
	if _, err := os.Stat(filepath.Join(dir, "clip.wav")); !os.IsNotExist(err) {
		t.Fatalf("audio file not cleaned up: %v", err)
	}
}

func TestTranscribe_SRTFormatWithSpeakers(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "clip.mp4")

	conf := &config.Config{}
	conf.Output.Format = "srt"

	a := &App{
		conf:  conf,
		audio: &fakeExtractor{},
		transcriber: &fakeTranscriber{segments: []models.TranscriptSegment{
			{Start: 0, End: 1.5, Text: "line"},
		}},
		diarizer: &fakeDiarizer{turns: []models.SpeakerTurn{
			{Start: 0, End: 2, Speaker: "SPEAKER_00"},
		}},
	}

	path, err := a.transcribe(context.Background(), videoPath)
	if err != nil {
		t.Fatalf("transcribe returned error: %v", err)
	}
	if !strings.HasSuffix(path, "_transcript.srt") {
		t.Fatalf("path = %q, want _transcript.srt suffix", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "1\n00:00:00,000 --> 00:00:01,500\n[SPEAKER_00] line\n\n"
	if string(data) != want {
		t.Fatalf("transcript = %q, want %q", data, want)
	}
}

func TestWriteChatTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.txt")
	messages := []models.ChatMessage{
		{Timestamp: 1000, Display: "[00:00:01] [a] : hi"},
		{Timestamp: 2000, Display: "[00:00:02] [b] : yo"},
	}

	if err := writeChatTranscript(path, messages); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "[00:00:01] [a] : hi\n[00:00:02] [b] : yo\n"
	if string(data) != want {
		t.Fatalf("transcript = %q, want %q", data, want)
	}
}
