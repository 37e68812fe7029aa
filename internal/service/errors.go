package service

import "fmt"

var (
	ErrInvalidLink               = fmt.Errorf("invalid video link")
	ErrMetadataFetch             = fmt.Errorf("failed to fetch video metadata")
	ErrNotFound                  = fmt.Errorf("video not found")
	ErrAdultVerificationRequired = fmt.Errorf("adult verification required, set naver login cookies")
	ErrAccessDenied              = fmt.Errorf("access to video denied")
	ErrPrivateOrLogin            = fmt.Errorf("video is private or requires login")
	ErrManifestParse             = fmt.Errorf("failed to parse playback manifest")
	ErrNoStreams                 = fmt.Errorf("no streams available")
	ErrInvalidRange              = fmt.Errorf("invalid time range")
	ErrAllMethodsFailed          = fmt.Errorf("all download methods failed")
)
