package models

// TranscriptSegment is one timed piece of recognized speech.
type TranscriptSegment struct {
	Start float64 // seconds
	End   float64
	Text  string
}

// SpeakerTurn is one diarized speaker interval.
type SpeakerTurn struct {
	Start   float64 // seconds
	End     float64
	Speaker string
}
