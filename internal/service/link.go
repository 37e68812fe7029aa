package service

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Anchored so trailing path segments are rejected; a query string is fine.
// Live links intentionally do not match: only VODs can be clipped.
var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://chzzk\.naver\.com/video/(\d+)(?:\?.*)?$`),
	regexp.MustCompile(`^https?://m\.chzzk\.naver\.com/video/(\d+)(?:\?.*)?$`),
}

// ResolveLink extracts the video number from a desktop or mobile Chzzk VOD
// permalink. Any other shape fails with ErrInvalidLink.
func ResolveLink(link string) (string, error) {
	link = strings.TrimSpace(link)

	for _, p := range linkPatterns {
		if m := p.FindStringSubmatch(link); m != nil {
			return m[1], nil
		}
	}

	return "", errors.Wrapf(ErrInvalidLink, "unrecognized link '%s'", link)
}
