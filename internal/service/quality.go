package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/plune/chzzk-clip/internal/models"
)

var heightPattern = regexp.MustCompile(`(\d+)p?`)

// SelectQuality maps a user preference onto a concrete stream. The input is
// assumed sorted descending, so "best" is the head and "worst" the tail.
// Unknown preferences fall back to the nearest height, then to "best".
// ok is false only for an empty stream list.
func SelectQuality(streams []models.StreamDescriptor, preference string) (models.StreamDescriptor, bool) {
	if len(streams) == 0 {
		return models.StreamDescriptor{}, false
	}

	switch strings.ToLower(strings.TrimSpace(preference)) {
	case "", "best":
		return streams[0], true
	case "worst":
		return streams[len(streams)-1], true
	}

	lower := strings.ToLower(preference)
	for _, s := range streams {
		if strings.Contains(strings.ToLower(s.QualityLabel), lower) || strings.Contains(s.Resolution, preference) {
			return s, true
		}
	}

	if target, ok := parseHeight(preference); ok {
		closest := streams[0]
		for _, s := range streams[1:] {
			if abs(s.Height-target) < abs(closest.Height-target) {
				closest = s
			}
		}
		return closest, true
	}

	return streams[0], true
}

func parseHeight(preference string) (int, bool) {
	m := heightPattern.FindStringSubmatch(preference)
	if m == nil {
		return 0, false
	}

	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return h, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
