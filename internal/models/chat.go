package models

// ChatMessage is one chat line anchored at an absolute player timestamp.
// Display carries the rebased [HH:MM:SS] prefix relative to the window start.
type ChatMessage struct {
	Timestamp int64 // ms since video start
	Display   string
}

// ChatWindow bounds a chat collection. Nil bounds mean 0 and +inf.
type ChatWindow struct {
	Start *int64 // ms, inclusive
	End   *int64 // ms, inclusive
}

// StartMillis returns the effective lower bound.
func (w ChatWindow) StartMillis() int64 {
	if w.Start == nil {
		return 0
	}
	return *w.Start
}

// Contains reports whether ts falls inside the window.
func (w ChatWindow) Contains(ts int64) bool {
	if w.Start != nil && ts < *w.Start {
		return false
	}
	if w.End != nil && ts > *w.End {
		return false
	}
	return true
}
