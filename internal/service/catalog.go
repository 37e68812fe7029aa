package service

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/plune/chzzk-clip/internal/models"
	"github.com/plune/chzzk-clip/internal/pkg/log"
)

const (
	videoInfoURL = "https://api.chzzk.naver.com/service/v2/videos/%s"
	playbackURL  = "https://apis.naver.com/neonplayer/vodplay/v2/playback/%s?key=%s"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	siteReferer = "https://chzzk.naver.com/"
	siteOrigin  = "https://chzzk.naver.com"
)

// CatalogClient resolves a video number into a full VideoMetadata catalog:
// authenticated metadata fetch, manifest parsing and advisory reachability
// filtering, with single-stream fallback when the manifest is unusable.
type CatalogClient struct {
	client    *http.Client
	validator *StreamValidator

	infoURL     string
	manifestURL string
}

func NewCatalogClient(validator *StreamValidator) *CatalogClient {
	return &CatalogClient{
		client:      &http.Client{Timeout: 30 * time.Second},
		validator:   validator,
		infoURL:     videoInfoURL,
		manifestURL: playbackURL,
	}
}

// FetchCatalog is purely functional given its inputs; its only side effect
// is outbound HTTP.
func (c *CatalogClient) FetchCatalog(ctx context.Context, videoNo string, cred *models.Credential) (*models.VideoMetadata, error) {
	status, body, err := c.getWithRetry(ctx, fmt.Sprintf(c.infoURL, videoNo), cred, "application/json, text/plain, */*", 3, time.Second)
	if err != nil {
		return nil, errors.Wrapf(ErrMetadataFetch, "metadata request failed after retries: %v", err)
	}

	switch {
	case status == http.StatusNotFound:
		return nil, ErrNotFound
	case status == http.StatusForbidden:
		return nil, c.forbiddenError(cred)
	case status != http.StatusOK:
		return nil, errors.Wrapf(ErrMetadataFetch, "unexpected status %d", status)
	}

	json, err := new(fastjson.Parser).ParseBytes(body)
	if err != nil {
		return nil, errors.Wrap(ErrMetadataFetch, err.Error())
	}

	switch code := json.GetInt("code"); code {
	case 200:
	case 403:
		// Success-enveloped response carrying the internal forbidden code.
		return nil, c.forbiddenError(cred)
	default:
		return nil, errors.Wrapf(ErrMetadataFetch, "api error code %d: %s", code, string(json.GetStringBytes("message")))
	}

	content := json.Get("content")
	if content == nil {
		return nil, errors.Wrap(ErrMetadataFetch, "response missing content")
	}

	var (
		videoID = string(content.GetStringBytes("videoId"))
		inKey   = string(content.GetStringBytes("inKey"))
		adult   = content.GetBool("adult")
	)
	if videoID == "" || inKey == "" {
		if adult && cred == nil {
			return nil, ErrAdultVerificationRequired
		}
		return nil, ErrPrivateOrLogin
	}

	meta := &models.VideoMetadata{
		VideoNo:  videoNo,
		VideoID:  videoID,
		InKey:    inKey,
		Title:    string(content.GetStringBytes("videoTitle")),
		Author:   string(content.GetStringBytes("channel", "channelName")),
		Duration: content.GetInt("duration"),
		Adult:    adult,
	}
	if meta.Title == "" {
		meta.Title = "Unknown Title"
	}
	if meta.Author == "" {
		meta.Author = "Unknown"
	}

	streams, err := c.fetchStreams(ctx, fmt.Sprintf(c.manifestURL, videoID, inKey), cred)
	if err != nil {
		return nil, err
	}
	meta.Streams = streams

	return meta, nil
}

func (c *CatalogClient) fetchStreams(ctx context.Context, manifestURL string, cred *models.Credential) ([]models.StreamDescriptor, error) {
	data, fetchErr := c.fetchManifest(ctx, manifestURL, cred)
	if fetchErr != nil {
		log.Logger.Warnw("manifest fetch failed, no streams to parse", "error", fetchErr)
	}

	var streams []models.StreamDescriptor
	if fetchErr == nil {
		parsed, err := ParseManifest(data)
		if err != nil {
			return nil, err
		}
		streams = parsed
		if len(streams) > 0 && c.validator != nil {
			streams = c.validator.FilterReachable(ctx, streams)
		}
	}

	if len(streams) == 0 {
		single := singleStreamURL(data)
		if single == "" {
			// A transport failure must stay distinguishable from a manifest
			// that genuinely advertises nothing.
			if fetchErr != nil {
				return nil, errors.Wrapf(ErrNoStreams, "manifest fetch failed: %v", fetchErr)
			}
			return nil, ErrNoStreams
		}

		log.Logger.Infow("manifest yielded no ranked streams, using single-stream fallback", "url", single)
		streams = []models.StreamDescriptor{{
			Resolution:   "auto",
			URL:          single,
			MimeType:     "video/mp4",
			QualityLabel: "auto",
		}}
	}

	return streams, nil
}

func (c *CatalogClient) fetchManifest(ctx context.Context, manifestURL string, cred *models.Credential) ([]byte, error) {
	status, body, err := c.getWithRetry(ctx, manifestURL, cred, "application/dash+xml, application/xml, text/xml, */*", 2, 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("manifest request returned status %d", status)
	}

	return body, nil
}

// getWithRetry retries transport-level failures and transient origin
// statuses (5xx, 429) with a fixed delay; any other HTTP response ends the
// retry loop so terminal outcomes can be classified by the caller.
func (c *CatalogClient) getWithRetry(ctx context.Context, url string, cred *models.Credential, accept string, attempts uint, delay time.Duration) (int, []byte, error) {
	var (
		status int
		body   []byte
	)

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			c.setHeaders(req, cred, accept)

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			status = resp.StatusCode

			if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
				return fmt.Errorf("server returned status %d", status)
			}

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)

	return status, body, err
}

func (c *CatalogClient) setHeaders(req *http.Request, cred *models.Credential, accept string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Referer", siteReferer)
	req.Header.Set("Origin", siteOrigin)
	if cred != nil {
		req.Header.Set("Cookie", cred.Header())
	}
}

func (c *CatalogClient) forbiddenError(cred *models.Credential) error {
	if cred == nil {
		return ErrAdultVerificationRequired
	}
	return ErrAccessDenied
}

// singleStreamURL returns the first BaseURL element anywhere in the manifest,
// in document order. Used as the unlabeled "auto" fallback stream.
func singleStreamURL(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "BaseURL" || start.Name.Space != mpdNamespace {
			continue
		}

		var value string
		if err := dec.DecodeElement(&value, &start); err != nil {
			return ""
		}
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
}
