package service

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/plune/chzzk-clip/internal/models"
)

// Transcriber converts an audio file into ordered timed text segments. The
// actual inference engine is an external collaborator.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error)
}

// Diarizer labels speaker intervals in an audio file. A nil Diarizer means
// the capability is unavailable.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]models.SpeakerTurn, error)
}

// AudioExtractor produces the fixed-format audio file the transcription
// collaborators expect: mono, 16kHz, signed 16-bit PCM.
type AudioExtractor struct {
	ffmpeg *FFmpeg
}

func NewAudioExtractor(ffmpeg *FFmpeg) *AudioExtractor {
	return &AudioExtractor{ffmpeg: ffmpeg}
}

func (e *AudioExtractor) Extract(ctx context.Context, videoPath, audioPath string) error {
	if !e.ffmpeg.Available() {
		return fmt.Errorf("ffmpeg binary '%s' is not available", e.ffmpeg.Path)
	}

	args := []string{
		"-loglevel", "error",
		"-i", videoPath,
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-y", audioPath,
	}

	cmd := exec.CommandContext(ctx, e.ffmpeg.Path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "audio extraction failed: %s", string(out))
	}

	if _, ok := verifyOutput(audioPath); !ok {
		return fmt.Errorf("audio extraction produced an empty file")
	}

	return nil
}
