package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/plune/chzzk-clip/internal/models"
	"github.com/plune/chzzk-clip/internal/pkg/log"
)

// FFmpeg locates the external transcoding tool. It is injected where needed
// so tests can substitute fakes per call instead of consulting a
// process-wide availability flag.
type FFmpeg struct {
	Path string
}

func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.Path)
	return err == nil
}

type segmentRequest struct {
	url        string
	outPath    string
	startSec   int
	durSec     int
	onProgress func(float64)
}

// downloadStrategy is one way of getting a time-bounded segment onto disk.
// Strategies are tried strictly in order until one succeeds.
type downloadStrategy interface {
	Name() string
	Attempt(ctx context.Context, req segmentRequest) models.DownloadOutcome
}

// SegmentDownloader downloads a bounded time range of a stream through an
// ordered chain of fallback strategies: input-side-seek remux, output-side-
// seek remux, re-encode, then a raw ranged HTTP fetch with a local
// extraction pass.
type SegmentDownloader struct {
	ffmpeg     *FFmpeg
	strategies []downloadStrategy
}

func NewSegmentDownloader(ffmpeg *FFmpeg, client *http.Client) *SegmentDownloader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	runner := &ffmpegRunner{ffmpeg: ffmpeg}
	raw := &rawHTTPStrategy{
		client:  client,
		extract: runner.ExtractSegment,
	}

	return &SegmentDownloader{
		ffmpeg: ffmpeg,
		strategies: []downloadStrategy{
			&ffmpegStrategy{name: "remux input-seek", runner: runner, args: inputSeekArgs},
			&ffmpegStrategy{name: "remux output-seek", runner: runner, args: outputSeekArgs},
			&ffmpegStrategy{name: "re-encode", runner: runner, args: reencodeArgs},
			raw,
		},
	}
}

// Download fetches [startSec, endSec) of streamURL into outPath, reporting
// strictly increasing progress percentages to onProgress. Per-strategy
// failures are recovered internally; only the aggregate failure surfaces.
func (d *SegmentDownloader) Download(ctx context.Context, streamURL, outPath string, startSec, endSec int, onProgress func(float64)) models.DownloadOutcome {
	if endSec <= startSec {
		return models.DownloadOutcome{Message: ErrInvalidRange.Error()}
	}
	if d.ffmpeg != nil && !d.ffmpeg.Available() {
		return models.DownloadOutcome{Message: fmt.Sprintf("ffmpeg binary '%s' is not available", d.ffmpeg.Path)}
	}

	req := segmentRequest{
		url:        streamURL,
		outPath:    outPath,
		startSec:   startSec,
		durSec:     endSec - startSec,
		onProgress: onProgress,
	}

	var lastError string
	for i, strategy := range d.strategies {
		log.Logger.Infow("trying download strategy", "strategy", strategy.Name(), "attempt", i+1)

		outcome := strategy.Attempt(ctx, req)
		if outcome.Success {
			log.Logger.Infow("download strategy succeeded",
				"strategy", strategy.Name(), "size", humanize.Bytes(uint64(outcome.Bytes)))
			return outcome
		}

		lastError = fmt.Sprintf("%s: %s", strategy.Name(), outcome.Message)
		log.Logger.Warnw("download strategy failed", "strategy", strategy.Name(), "error", outcome.Message)

		// A failed attempt may leave a partial file behind.
		_ = os.Remove(outPath)
	}

	return models.DownloadOutcome{
		Message: errors.Wrapf(ErrAllMethodsFailed, "last error: %s", lastError).Error(),
	}
}

// verifyOutput downgrades a zero-byte "successful" process to a failure.
func verifyOutput(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return 0, false
	}
	return info.Size(), true
}

type ffmpegStrategy struct {
	name   string
	runner *ffmpegRunner
	args   func(req segmentRequest) []string
}

func (s *ffmpegStrategy) Name() string { return s.name }

func (s *ffmpegStrategy) Attempt(ctx context.Context, req segmentRequest) models.DownloadOutcome {
	return s.runner.Run(ctx, s.args(req), req.durSec, req.onProgress, req.outPath)
}

// Seek and duration at the input stage, stream copy, reconnect on drop,
// output timestamp normalization.
func inputSeekArgs(req segmentRequest) []string {
	return []string{
		"-loglevel", "warning",
		"-ss", strconv.Itoa(req.startSec),
		"-t", strconv.Itoa(req.durSec),
		"-user_agent", userAgent,
		"-headers", segmentHeaders(),
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", req.url,
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-fflags", "+genpts",
		"-movflags", "+faststart",
		"-y", req.outPath,
	}
}

// Seek and duration at the output stage instead, for origins that mishandle
// input-side seeking.
func outputSeekArgs(req segmentRequest) []string {
	return []string{
		"-loglevel", "warning",
		"-user_agent", userAgent,
		"-headers", segmentHeaders(),
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-i", req.url,
		"-ss", strconv.Itoa(req.startSec),
		"-t", strconv.Itoa(req.durSec),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-y", req.outPath,
	}
}

// Compatibility fallback when stream copy fails at the requested offset.
func reencodeArgs(req segmentRequest) []string {
	return []string{
		"-loglevel", "error",
		"-ss", strconv.Itoa(req.startSec),
		"-t", strconv.Itoa(req.durSec),
		"-headers", "User-Agent: " + userAgent + "\r\n",
		"-i", req.url,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "fast",
		"-crf", "23",
		"-y", req.outPath,
	}
}

// ffmpegRunner starts ffmpeg with progress reporting on stderr and
// supervises it through a progressMonitor.
type ffmpegRunner struct {
	ffmpeg *FFmpeg
}

func (r *ffmpegRunner) Run(ctx context.Context, args []string, durSec int, onProgress func(float64), outPath string) models.DownloadOutcome {
	args = append(args, "-progress", "pipe:2", "-nostats")

	cmd := exec.CommandContext(ctx, r.ffmpeg.Path, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return models.DownloadOutcome{Message: err.Error()}
	}

	if err := cmd.Start(); err != nil {
		return models.DownloadOutcome{Message: err.Error()}
	}

	monitor := newProgressMonitor(durSec, onProgress)
	monitor.Consume(stderr)

	if err := cmd.Wait(); err != nil {
		return models.DownloadOutcome{
			Message: fmt.Sprintf("download failed (code %s): %s", exitCode(err), failureMessage(monitor.Lines())),
		}
	}

	size, ok := verifyOutput(outPath)
	if !ok {
		return models.DownloadOutcome{Message: "download finished but the output file is empty"}
	}

	return models.DownloadOutcome{Success: true, Message: "download complete", Bytes: size}
}

// ExtractSegment runs a local stream-copy pass over an already-downloaded
// object, cutting out the requested window.
func (r *ffmpegRunner) ExtractSegment(ctx context.Context, src, dst string, startSec, durSec int) error {
	args := []string{
		"-loglevel", "error",
		"-ss", strconv.Itoa(startSec),
		"-t", strconv.Itoa(durSec),
		"-i", src,
		"-c", "copy",
		"-y", dst,
	}

	cmd := exec.CommandContext(ctx, r.ffmpeg.Path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "segment extraction failed: %s", string(out))
	}

	if _, ok := verifyOutput(dst); !ok {
		return fmt.Errorf("segment extraction produced an empty file")
	}

	return nil
}

// assumedBytesPerSecond is a rough heuristic for the raw HTTP byte range.
// It has no correctness guarantee against the real encoding bitrate, which
// is why the extraction pass below is unconditional.
const assumedBytesPerSecond = 1_000_000

type rawHTTPStrategy struct {
	client  *http.Client
	extract func(ctx context.Context, src, dst string, startSec, durSec int) error
}

func (s *rawHTTPStrategy) Name() string { return "raw http fetch" }

func (s *rawHTTPStrategy) Attempt(ctx context.Context, req segmentRequest) models.DownloadOutcome {
	resp, ranged, err := s.get(ctx, req)
	if err != nil {
		return models.DownloadOutcome{Message: err.Error()}
	}
	defer resp.Body.Close()

	written, err := s.writeBody(resp, req)
	if err != nil {
		return models.DownloadOutcome{Message: err.Error()}
	}

	if _, ok := verifyOutput(req.outPath); !ok {
		return models.DownloadOutcome{Message: "downloaded file is empty"}
	}

	// The byte range is bitrate-estimated, so the window is never exact:
	// always trim locally. A honored range already starts near the target,
	// an ignored one contains the whole object.
	extractStart := req.startSec
	if ranged {
		extractStart = 0
	}
	if err := s.extractInPlace(ctx, req, extractStart); err != nil {
		return models.DownloadOutcome{Message: err.Error()}
	}

	size, ok := verifyOutput(req.outPath)
	if !ok {
		return models.DownloadOutcome{Message: "extracted segment is empty"}
	}

	log.Logger.Debugw("raw http fetch complete", "fetched", humanize.Bytes(uint64(written)), "final", humanize.Bytes(uint64(size)))

	return models.DownloadOutcome{Success: true, Message: "download complete (http fallback)", Bytes: size}
}

// get tries a ranged request first; if the origin rejects it, retries
// without the Range header. ranged reports whether the origin honored the
// byte range (206).
func (s *rawHTTPStrategy) get(ctx context.Context, req segmentRequest) (*http.Response, bool, error) {
	from := int64(req.startSec) * assumedBytesPerSecond
	to := int64(req.startSec+req.durSec)*assumedBytesPerSecond + assumedBytesPerSecond

	resp, err := s.do(ctx, req.url, fmt.Sprintf("bytes=%d-%d", from, to))
	if err == nil && (resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent) {
		return resp, resp.StatusCode == http.StatusPartialContent, nil
	}
	if err == nil {
		resp.Body.Close()
	}

	resp, err = s.do(ctx, req.url, "")
	if err != nil {
		return nil, false, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, false, fmt.Errorf("http error: %d", resp.StatusCode)
	}

	return resp, false, nil
}

func (s *rawHTTPStrategy) do(ctx context.Context, url, rangeHeader string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Referer", siteReferer)
	if rangeHeader != "" {
		httpReq.Header.Set("Range", rangeHeader)
	}

	return s.client.Do(httpReq)
}

func (s *rawHTTPStrategy) writeBody(resp *http.Response, req segmentRequest) (int64, error) {
	f, err := os.Create(req.outPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		total      = resp.ContentLength
		downloaded int64
		last       = -1.0
		buf        = make([]byte, 8192)
	)

	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return downloaded, werr
			}
			downloaded += int64(n)

			if req.onProgress != nil && total > 0 {
				progress := float64(downloaded) / float64(total) * 100
				if progress > 100 {
					progress = 100
				}
				if progress > last {
					req.onProgress(progress)
					last = progress
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return downloaded, nil
			}
			return downloaded, err
		}
	}
}

// extractInPlace renames the fetched object aside, extracts the segment to
// the final path and removes the temporary on any outcome.
func (s *rawHTTPStrategy) extractInPlace(ctx context.Context, req segmentRequest, startSec int) error {
	tempPath := fmt.Sprintf("%s.%s.tmp", req.outPath, uuid.New().String())

	if err := os.Rename(req.outPath, tempPath); err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tempPath)
	}()

	if err := s.extract(ctx, tempPath, req.outPath, startSec, req.durSec); err != nil {
		// Best effort: put the whole object back so the caller at least
		// has the raw bytes to inspect.
		if _, statErr := os.Stat(req.outPath); statErr != nil {
			_ = os.Rename(tempPath, req.outPath)
		}
		return err
	}

	return nil
}
