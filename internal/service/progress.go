package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var (
	outTimeMicrosPattern = regexp.MustCompile(`out_time_ms=(\d+)`)
	outTimeClockPattern  = regexp.MustCompile(`out_time=(\d+):(\d+):(\d+)\.(\d+)`)
)

const retainedLines = 20

// progressMonitor consumes a child process's progress stream line by line,
// converting elapsed-time markers into percentages. Reports are strictly
// increasing; a marker that does not advance the percentage is dropped.
// The last 20 lines are retained for failure diagnosis.
type progressMonitor struct {
	duration   float64 // seconds
	onProgress func(float64)

	last  float64
	lines []string
}

func newProgressMonitor(durationSec int, onProgress func(float64)) *progressMonitor {
	return &progressMonitor{
		duration:   float64(durationSec),
		onProgress: onProgress,
		last:       -1,
	}
}

// Consume reads r until EOF. The read blocks while the child produces no
// output; the child, not the caller, performs the actual work.
func (m *progressMonitor) Consume(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m.Line(scanner.Text())
	}
}

func (m *progressMonitor) Line(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	m.lines = append(m.lines, line)
	if len(m.lines) > retainedLines {
		m.lines = m.lines[len(m.lines)-retainedLines:]
	}

	elapsed, ok := parseElapsed(line)
	if !ok || m.onProgress == nil || m.duration <= 0 {
		return
	}

	if elapsed > m.duration {
		elapsed = m.duration
	}
	progress := elapsed / m.duration * 100
	if progress > m.last {
		m.onProgress(progress)
		m.last = progress
	}
}

func (m *progressMonitor) Lines() []string {
	return m.lines
}

// parseElapsed understands both progress markers ffmpeg emits: the
// microsecond counter (out_time_ms) and the HH:MM:SS.ffff clock (out_time).
func parseElapsed(line string) (float64, bool) {
	if m := outTimeMicrosPattern.FindStringSubmatch(line); m != nil {
		micros, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return float64(micros) / 1_000_000, true
	}

	if m := outTimeClockPattern.FindStringSubmatch(line); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		frac, err := strconv.ParseFloat("0."+m[4], 64)
		if err != nil {
			return 0, false
		}
		return float64(h*3600+mm*60+s) + frac, true
	}

	return 0, false
}

var failureKeywords = []string{"error", "failed", "invalid", "not found", "forbidden", "http"}

// failureMessage picks the most useful diagnostic out of the retained
// process output: up to the last 3 lines carrying a failure keyword, else
// the last 3 raw lines.
func failureMessage(lines []string) string {
	if len(lines) == 0 {
		return "unknown error"
	}

	var matched []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, kw := range failureKeywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, line)
				break
			}
		}
	}

	if len(matched) == 0 {
		matched = lines
	}
	if len(matched) > 3 {
		matched = matched[len(matched)-3:]
	}

	return strings.Join(matched, "; ")
}

func exitCode(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return strconv.Itoa(exitErr.ExitCode())
	}
	return err.Error()
}

func segmentHeaders() string {
	return fmt.Sprintf("Referer: %s\r\nUser-Agent: %s\r\n", siteReferer, userAgent)
}
