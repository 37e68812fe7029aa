package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/plune/chzzk-clip/internal/config"
	"github.com/plune/chzzk-clip/internal/models"
	"github.com/plune/chzzk-clip/internal/pkg/cookies"
	"github.com/plune/chzzk-clip/internal/pkg/filename"
	"github.com/plune/chzzk-clip/internal/pkg/hash"
	"github.com/plune/chzzk-clip/internal/pkg/log"
	"github.com/plune/chzzk-clip/internal/repository"
	"github.com/plune/chzzk-clip/internal/service"
)

// App wires the acquisition pipeline: link resolution, catalog fetch with
// caching, quality selection, then segment download and chat collection
// running concurrently over disjoint resources.
type App struct {
	conf *config.Config

	repo       *repository.CatalogRepository
	catalog    *service.CatalogClient
	downloader *service.SegmentDownloader
	chat       *service.ChatCollector
	cred       *models.Credential

	audio       audioExtractor
	transcriber service.Transcriber
	diarizer    service.Diarizer
}

type audioExtractor interface {
	Extract(ctx context.Context, videoPath, audioPath string) error
}

func NewApp(conf *config.Config) (*App, error) {
	repo, err := repository.NewCatalogRepository()
	if err != nil {
		return nil, err
	}

	ffmpeg := service.NewFFmpeg(conf.FFmpeg.Path)

	return &App{
		conf:       conf,
		repo:       repo,
		catalog:    service.NewCatalogClient(service.NewStreamValidator()),
		downloader: service.NewSegmentDownloader(ffmpeg, nil),
		chat:       service.NewChatCollector(),
		cred:       cookies.Parse(conf.Auth.Cookies),
		audio:      service.NewAudioExtractor(ffmpeg),
	}, nil
}

// WithTranscription installs the optional transcription collaborators. A nil
// diarizer produces an untagged transcript.
func (a *App) WithTranscription(t service.Transcriber, d service.Diarizer) *App {
	a.transcriber = t
	a.diarizer = d
	return a
}

type AcquireOptions struct {
	Link     string
	StartSec int
	EndSec   int
	Quality  string // empty means the configured default

	OnProgress func(float64) // must be cheap and never block
}

// AcquisitionResult converges everything one acquisition produced.
type AcquisitionResult struct {
	Metadata *models.VideoMetadata
	Stream   models.StreamDescriptor

	VideoPath      string
	ChatPath       string // empty when chat collection is disabled or came up empty
	TranscriptPath string // empty unless a transcriber is installed and succeeded
	Chat           []models.ChatMessage
}

func (a *App) Acquire(ctx context.Context, opts AcquireOptions) (*AcquisitionResult, error) {
	videoNo, err := service.ResolveLink(opts.Link)
	if err != nil {
		return nil, err
	}

	meta, err := a.lookupCatalog(ctx, videoNo)
	if err != nil {
		return nil, err
	}

	quality := opts.Quality
	if quality == "" {
		quality = a.conf.Download.Quality
	}

	stream, ok := service.SelectQuality(meta.Streams, quality)
	if !ok {
		return nil, service.ErrNoStreams
	}
	log.Logger.Infow("selected stream",
		"title", meta.Title, "quality", stream.QualityLabel, "resolution", stream.Resolution)

	if err := os.MkdirAll(a.conf.Download.Path, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create download directory")
	}

	videoName := filename.Generate(meta.Title, stream.QualityLabel, "mp4", time.Now())
	videoPath := filepath.Join(a.conf.Download.Path, videoName)
	chatPath := strings.TrimSuffix(videoPath, ".mp4") + "_chat.txt"

	result := &AcquisitionResult{
		Metadata:  meta,
		Stream:    stream,
		VideoPath: videoPath,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		outcome := a.downloader.Download(gctx, stream.URL, videoPath, opts.StartSec, opts.EndSec, opts.OnProgress)
		if !outcome.Success {
			return errors.New(outcome.Message)
		}
		return nil
	})

	if a.conf.Chat.Enabled {
		g.Go(func() error {
			// Chat is best-effort enrichment: an empty or partial list is
			// a legitimate success and never fails the acquisition.
			start := int64(opts.StartSec) * 1000
			end := int64(opts.EndSec) * 1000
			window := models.ChatWindow{Start: &start, End: &end}

			result.Chat = a.chat.Collect(gctx, videoNo, a.cred, window)
			if len(result.Chat) == 0 {
				return nil
			}

			if err := writeChatTranscript(chatPath, result.Chat); err != nil {
				log.Logger.Warnw("failed to write chat transcript", "path", chatPath, "error", err)
				return nil
			}
			result.ChatPath = chatPath

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Best-effort cleanup of a partially written segment.
		_ = os.Remove(videoPath)
		return nil, err
	}

	if a.transcriber != nil {
		// Same contract as chat: enrichment only, never fails the acquisition.
		path, err := a.transcribe(ctx, videoPath)
		if err != nil {
			log.Logger.Warnw("transcription failed", "video", videoPath, "error", err)
		} else {
			result.TranscriptPath = path
		}
	}

	return result, nil
}

// transcribe extracts audio from the downloaded segment, runs the installed
// collaborators over it and writes the transcript next to the video in the
// configured output format.
func (a *App) transcribe(ctx context.Context, videoPath string) (string, error) {
	audioPath := strings.TrimSuffix(videoPath, ".mp4") + ".wav"
	if err := a.audio.Extract(ctx, videoPath, audioPath); err != nil {
		return "", err
	}
	defer os.Remove(audioPath)

	segments, err := a.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return "", err
	}

	var turns []models.SpeakerTurn
	if a.diarizer != nil {
		turns, err = a.diarizer.Diarize(ctx, audioPath)
		if err != nil {
			log.Logger.Warnw("diarization failed, transcript will be untagged", "error", err)
			turns = nil
		}
	}

	rendered := service.RenderTranscriptText(segments, turns)
	ext := ".txt"
	if a.conf.Output.Format == "srt" {
		rendered = service.RenderTranscriptSRT(segments, turns)
		ext = ".srt"
	}

	transcriptPath := strings.TrimSuffix(videoPath, ".mp4") + "_transcript" + ext
	if err := os.WriteFile(transcriptPath, []byte(rendered), 0o644); err != nil {
		return "", err
	}

	return transcriptPath, nil
}

func (a *App) lookupCatalog(ctx context.Context, videoNo string) (*models.VideoMetadata, error) {
	key := hash.Sha256(videoNo)
	if meta, ok := a.repo.Get(key); ok {
		log.Logger.Debugw("catalog cache hit", "videoNo", videoNo)
		return meta, nil
	}

	meta, err := a.catalog.FetchCatalog(ctx, videoNo, a.cred)
	if err != nil {
		return nil, err
	}
	a.repo.Add(key, meta)

	return meta, nil
}

// writeChatTranscript writes one rendered line per message.
func writeChatTranscript(path string, messages []models.ChatMessage) error {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(msg.Display)
		b.WriteByte('\n')
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
