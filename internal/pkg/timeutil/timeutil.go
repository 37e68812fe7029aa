// Package timeutil converts between player timestamps and the clock strings
// used in chat transcripts and subtitle files.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatMillis renders a player timestamp as "[HH:MM:SS]".
func FormatMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	return fmt.Sprintf("[%02d:%02d:%02d]", secs/3600, (secs%3600)/60, secs%60)
}

// FormatSeconds renders seconds as "HH:MM:SS".
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// FormatSRT renders seconds as the "HH:MM:SS,mmm" clock used by SRT cues.
func FormatSRT(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int64(seconds)
	millis := int64((seconds - float64(whole)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", whole/3600, (whole%3600)/60, whole%60, millis)
}

// ParseClock parses "HH:MM:SS", "MM:SS" or plain seconds into seconds.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time string")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time format %q", s)
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time format %q", s)
		}
		total = total*60 + n
	}

	return total, nil
}
