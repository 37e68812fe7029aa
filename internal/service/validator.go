package service

import (
	"context"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/plune/chzzk-clip/internal/models"
	"github.com/plune/chzzk-clip/internal/pkg/log"
)

// StreamValidator probes candidate stream URLs with a small ranged GET. Its
// verdict is advisory: probe and download may hit different paths in the
// origin's access policy, so an all-unreachable result never blocks the
// download attempt.
type StreamValidator struct {
	client *http.Client
	probes *gocache.Cache
}

func NewStreamValidator() *StreamValidator {
	return &StreamValidator{
		client: &http.Client{Timeout: 5 * time.Second},
		probes: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// FilterReachable keeps streams whose URL answered 200 or 206 to a 1KiB
// ranged GET, preserving the input order. If nothing survives, the original
// list is returned unchanged.
func (v *StreamValidator) FilterReachable(ctx context.Context, streams []models.StreamDescriptor) []models.StreamDescriptor {
	valid := make([]models.StreamDescriptor, 0, len(streams))
	for _, s := range streams {
		if v.reachable(ctx, s.URL) {
			valid = append(valid, s)
		}
	}

	if len(valid) == 0 {
		log.Logger.Warnw("no stream passed the reachability probe, keeping unfiltered list", "candidates", len(streams))
		return streams
	}

	return valid
}

func (v *StreamValidator) reachable(ctx context.Context, url string) bool {
	if cached, ok := v.probes.Get(url); ok {
		return cached.(bool)
	}

	ok := v.probe(ctx, url)
	v.probes.Set(url, ok, gocache.DefaultExpiration)

	return ok
}

func (v *StreamValidator) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", siteReferer)
	req.Header.Set("Range", "bytes=0-1023")

	resp, err := v.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent
}
