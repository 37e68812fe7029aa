package service

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/plune/chzzk-clip/internal/models"
)

const mpdNamespace = "urn:mpeg:dash:schema:mpd:2011"

type mpdDocument struct {
	XMLName xml.Name    `xml:"MPD"`
	BaseURL []string    `xml:"BaseURL"`
	Periods []mpdPeriod `xml:"Period"`
}

type mpdPeriod struct {
	AdaptationSets []mpdAdaptationSet `xml:"AdaptationSet"`
}

type mpdAdaptationSet struct {
	MimeType        string              `xml:"mimeType,attr"`
	BaseURL         []string            `xml:"BaseURL"`
	Representations []mpdRepresentation `xml:"Representation"`
}

type mpdRepresentation struct {
	ID        string   `xml:"id,attr"`
	Width     int      `xml:"width,attr"`
	Height    int      `xml:"height,attr"`
	Bandwidth int      `xml:"bandwidth,attr"`
	MimeType  string   `xml:"mimeType,attr"`
	BaseURL   []string `xml:"BaseURL"`
}

// ParseManifest extracts ranked video stream descriptors from a DASH MPD.
// An empty result with nil error means "no usable manifest" and prompts the
// caller to fall back to single-stream extraction.
func ParseManifest(data []byte) ([]models.StreamDescriptor, error) {
	var doc mpdDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(ErrManifestParse, err.Error())
	}
	if doc.XMLName.Space != mpdNamespace {
		return nil, errors.Wrapf(ErrManifestParse, "unexpected manifest namespace '%s'", doc.XMLName.Space)
	}

	rootBase := firstNonEmpty(doc.BaseURL)

	var streams []models.StreamDescriptor
	seen := make(map[string]struct{})

	for _, period := range doc.Periods {
		for _, set := range period.AdaptationSets {
			if !strings.Contains(set.MimeType, "video") {
				continue
			}

			setBase := firstNonEmpty(set.BaseURL)
			if setBase == "" {
				setBase = rootBase
			}

			for _, rep := range set.Representations {
				repURL := firstNonEmpty(rep.BaseURL)
				if repURL == "" {
					repURL = setBase
				}
				if rep.Width == 0 || rep.Height == 0 || repURL == "" {
					continue
				}

				mimeType := set.MimeType
				if rep.MimeType != "" {
					mimeType = rep.MimeType
				}

				key := fmt.Sprintf("%dx%d_%s", rep.Width, rep.Height, mimeType)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				streams = append(streams, models.StreamDescriptor{
					Resolution:   fmt.Sprintf("%dx%d", rep.Width, rep.Height),
					Width:        rep.Width,
					Height:       rep.Height,
					Bandwidth:    rep.Bandwidth,
					URL:          strings.TrimSpace(repURL),
					ID:           rep.ID,
					MimeType:     mimeType,
					QualityLabel: qualityLabel(rep.Height),
				})
			}
		}
	}

	sortStreams(streams)

	return streams, nil
}

// sortStreams orders descriptors descending by height, then bandwidth.
func sortStreams(streams []models.StreamDescriptor) {
	sort.SliceStable(streams, func(i, j int) bool {
		if streams[i].Height != streams[j].Height {
			return streams[i].Height > streams[j].Height
		}
		return streams[i].Bandwidth > streams[j].Bandwidth
	})
}

func qualityLabel(height int) string {
	switch {
	case height >= 2160:
		return "4K"
	case height >= 1440:
		return "1440p"
	case height >= 1080:
		return "1080p"
	case height >= 720:
		return "720p"
	case height >= 480:
		return "480p"
	case height >= 360:
		return "360p"
	default:
		return fmt.Sprintf("%dp", height)
	}
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
