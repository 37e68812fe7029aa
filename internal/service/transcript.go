package service

import (
	"fmt"
	"strings"

	"github.com/plune/chzzk-clip/internal/models"
	"github.com/plune/chzzk-clip/internal/pkg/timeutil"
)

// RenderTranscriptText renders segments as plain "[HH:MM:SS] text" lines.
// When speaker turns are supplied, each segment is tagged with the speaker
// whose interval covers the segment midpoint.
func RenderTranscriptText(segments []models.TranscriptSegment, turns []models.SpeakerTurn) string {
	var b strings.Builder
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		if speaker := speakerAt(turns, (seg.Start+seg.End)/2); speaker != "" {
			fmt.Fprintf(&b, "[%s] [%s] %s\n", timeutil.FormatSeconds(seg.Start), speaker, text)
		} else {
			fmt.Fprintf(&b, "[%s] %s\n", timeutil.FormatSeconds(seg.Start), text)
		}
	}

	return b.String()
}

// RenderTranscriptSRT renders segments as SubRip cues.
func RenderTranscriptSRT(segments []models.TranscriptSegment, turns []models.SpeakerTurn) string {
	var b strings.Builder
	index := 1
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		if speaker := speakerAt(turns, (seg.Start+seg.End)/2); speaker != "" {
			text = fmt.Sprintf("[%s] %s", speaker, text)
		}

		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", index, timeutil.FormatSRT(seg.Start), timeutil.FormatSRT(seg.End), text)
		index++
	}

	return b.String()
}

func speakerAt(turns []models.SpeakerTurn, at float64) string {
	for _, turn := range turns {
		if at >= turn.Start && at <= turn.End {
			return turn.Speaker
		}
	}
	return ""
}
