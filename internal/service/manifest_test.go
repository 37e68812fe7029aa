package service

import (
	"testing"

	"github.com/pkg/errors"
)

const testManifest = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011">
  <BaseURL>https://vod.example.com/root.mp4</BaseURL>
  <Period>
    <AdaptationSet mimeType="video/mp4">
      <BaseURL>https://vod.example.com/set.mp4</BaseURL>
      <Representation id="1080p" width="1920" height="1080" bandwidth="5000000">
        <BaseURL>https://vod.example.com/1080.mp4</BaseURL>
      </Representation>
      <Representation id="720p" width="1280" height="720" bandwidth="2500000"/>
      <Representation id="1080p-dup" width="1920" height="1080" bandwidth="4000000">
        <BaseURL>https://vod.example.com/1080-alt.mp4</BaseURL>
      </Representation>
      <Representation id="no-dims" bandwidth="1000000"/>
    </AdaptationSet>
    <AdaptationSet mimeType="audio/mp4">
      <Representation id="audio" bandwidth="128000">
        <BaseURL>https://vod.example.com/audio.mp4</BaseURL>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`

func TestParseManifest(t *testing.T) {
	streams, err := ParseManifest([]byte(testManifest))
	if err != nil {
		t.Fatalf("ParseManifest returned error: %v", err)
	}

	if len(streams) != 2 {
		t.Fatalf("expected 2 streams, got %d: %+v", len(streams), streams)
	}

	// Descending by height.
	if streams[0].Height != 1080 || streams[1].Height != 720 {
		t.Fatalf("unexpected ordering: %+v", streams)
	}

	// Dedup keeps the first-seen representation per (w,h,mime).
	if streams[0].URL != "https://vod.example.com/1080.mp4" {
		t.Fatalf("dedup kept wrong instance: %q", streams[0].URL)
	}

	// Representation without its own BaseURL inherits the set-level one.
	if streams[1].URL != "https://vod.example.com/set.mp4" {
		t.Fatalf("base URL precedence broken: %q", streams[1].URL)
	}

	if streams[0].QualityLabel != "1080p" || streams[1].QualityLabel != "720p" {
		t.Fatalf("unexpected labels: %q %q", streams[0].QualityLabel, streams[1].QualityLabel)
	}
	if streams[0].Resolution != "1920x1080" {
		t.Fatalf("unexpected resolution: %q", streams[0].Resolution)
	}
}

func TestParseManifest_RootBaseURLFallback(t *testing.T) {
	manifest := `<MPD xmlns="urn:mpeg:dash:schema:mpd:2011">
  <BaseURL>https://vod.example.com/root.mp4</BaseURL>
  <Period>
    <AdaptationSet mimeType="video/mp4">
      <Representation id="480p" width="854" height="480" bandwidth="800000"/>
    </AdaptationSet>
  </Period>
</MPD>`

	streams, err := ParseManifest([]byte(manifest))
	if err != nil {
		t.Fatalf("ParseManifest returned error: %v", err)
	}
	if len(streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(streams))
	}
	if streams[0].URL != "https://vod.example.com/root.mp4" {
		t.Fatalf("expected root base URL, got %q", streams[0].URL)
	}
}

func TestParseManifest_MalformedXML(t *testing.T) {
	_, err := ParseManifest([]byte("<MPD><broken"))
	if !errors.Is(err, ErrManifestParse) {
		t.Fatalf("expected ErrManifestParse, got %v", err)
	}
}

func TestParseManifest_WrongNamespace(t *testing.T) {
	_, err := ParseManifest([]byte(`<MPD xmlns="urn:other:ns"><Period/></MPD>`))
	if !errors.Is(err, ErrManifestParse) {
		t.Fatalf("expected ErrManifestParse, got %v", err)
	}
}

func TestParseManifest_EmptyResultIsNotAnError(t *testing.T) {
	manifest := `<MPD xmlns="urn:mpeg:dash:schema:mpd:2011">
  <Period>
    <AdaptationSet mimeType="audio/mp4">
      <Representation id="audio" bandwidth="128000">
        <BaseURL>https://vod.example.com/audio.mp4</BaseURL>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`

	streams, err := ParseManifest([]byte(manifest))
	if err != nil {
		t.Fatalf("expected nil error for empty result, got %v", err)
	}
	if len(streams) != 0 {
		t.Fatalf("expected no streams, got %d", len(streams))
	}
}

func TestParseManifest_SortIsStableByHeightThenBandwidth(t *testing.T) {
	manifest := `<MPD xmlns="urn:mpeg:dash:schema:mpd:2011">
  <Period>
    <AdaptationSet mimeType="video/mp4">
      <Representation id="a" width="1280" height="720" bandwidth="1000000"><BaseURL>https://e/a</BaseURL></Representation>
      <Representation id="b" width="1920" height="1080" bandwidth="3000000"><BaseURL>https://e/b</BaseURL></Representation>
    </AdaptationSet>
    <AdaptationSet mimeType="video/webm">
      <Representation id="c" width="1920" height="1080" bandwidth="5000000"><BaseURL>https://e/c</BaseURL></Representation>
    </AdaptationSet>
  </Period>
</MPD>`

	streams, err := ParseManifest([]byte(manifest))
	if err != nil {
		t.Fatalf("ParseManifest returned error: %v", err)
	}

	for i := 1; i < len(streams); i++ {
		prev, cur := streams[i-1], streams[i]
		if cur.Height > prev.Height {
			t.Fatalf("height not non-increasing at %d: %+v", i, streams)
		}
		if cur.Height == prev.Height && cur.Bandwidth > prev.Bandwidth {
			t.Fatalf("bandwidth not non-increasing for equal heights at %d: %+v", i, streams)
		}
	}
}

func TestQualityLabelThresholds(t *testing.T) {
	cases := []struct {
		height int
		want   string
	}{
		{4320, "4K"},
		{2160, "4K"},
		{1440, "1440p"},
		{1200, "1080p"},
		{1080, "1080p"},
		{720, "720p"},
		{480, "480p"},
		{360, "360p"},
		{240, "240p"},
	}

	for _, tc := range cases {
		if got := qualityLabel(tc.height); got != tc.want {
			t.Fatalf("qualityLabel(%d) = %q, want %q", tc.height, got, tc.want)
		}
	}
}

func TestSingleStreamURL(t *testing.T) {
	if got := singleStreamURL([]byte(testManifest)); got != "https://vod.example.com/root.mp4" {
		t.Fatalf("singleStreamURL = %q", got)
	}
	if got := singleStreamURL(nil); got != "" {
		t.Fatalf("singleStreamURL(nil) = %q, want empty", got)
	}
	if got := singleStreamURL([]byte(`<MPD xmlns="urn:other:ns"><BaseURL>x</BaseURL></MPD>`)); got != "" {
		t.Fatalf("singleStreamURL with foreign namespace = %q, want empty", got)
	}
}
