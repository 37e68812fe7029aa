package models

// StreamDescriptor is one encoded variant of a VOD as advertised by the
// playback manifest. Descriptors are uniquely keyed by (width, height,
// mime type) among siblings; duplicates are dropped at parse time.
type StreamDescriptor struct {
	Resolution   string
	Width        int
	Height       int
	Bandwidth    int // bits/sec, 0 if unknown
	URL          string
	ID           string
	MimeType     string
	QualityLabel string // "4K".."360p", "<height>p", or "auto"
}

// VideoMetadata is the resolved catalog entry for one VOD. It is built once
// per acquisition and never mutated afterwards; it owns its stream list.
type VideoMetadata struct {
	VideoNo  string
	VideoID  string
	InKey    string
	Title    string
	Author   string
	Duration int // seconds
	Adult    bool
	Streams  []StreamDescriptor // sorted descending by (height, bandwidth)
}

// DownloadOutcome terminates one download-strategy attempt.
type DownloadOutcome struct {
	Success bool
	Message string
	Bytes   int64
}
