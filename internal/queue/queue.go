package queue

// TrackState is the load/playback state of a queued track.
type TrackState int

const (
	Pending TrackState = iota
	Loading
	Ready
	Playing
	Done
	Failed
)

func (s TrackState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Track is one queued audio file with its optional lyric sidecar.
type Track struct {
	Path   string
	Lyrics string
	Title  string
	Artist string
	State  TrackState
	Err    error
}

// Queue is the ordered list of tracks to visualize.
// It is only mutated from Bubbletea's single-threaded Update loop.
type Queue struct {
	tracks  []Track
	current int
}

// New creates a Queue positioned on the first track.
func New(tracks []Track) *Queue {
	return &Queue{tracks: tracks}
}

// Current returns a pointer to the current track, or nil if empty.
func (q *Queue) Current() *Track {
	return q.Track(q.current)
}

// Advance moves to the next track. Returns false if already at the end.
func (q *Queue) Advance() bool {
	if q.current+1 >= len(q.tracks) {
		return false
	}
	q.current++
	return true
}

// Previous moves back one track. Returns false if already at the start.
func (q *Queue) Previous() bool {
	if q.current <= 0 {
		return false
	}
	q.current--
	return true
}

// SetCurrentIndex moves to track i. Out-of-range indices are ignored.
func (q *Queue) SetCurrentIndex(i int) {
	if i >= 0 && i < len(q.tracks) {
		q.current = i
	}
}

// Peek returns up to n tracks after the current one.
func (q *Queue) Peek(n int) []Track {
	start := q.current + 1
	if start >= len(q.tracks) || n <= 0 {
		return nil
	}
	end := min(start+n, len(q.tracks))
	result := make([]Track, end-start)
	copy(result, q.tracks[start:end])
	return result
}

// Len returns the total number of tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// CurrentIndex returns the zero-based index of the current track.
func (q *Queue) CurrentIndex() int {
	return q.current
}

// Track returns a pointer to the track at index i, or nil if out of range.
func (q *Queue) Track(i int) *Track {
	if i < 0 || i >= len(q.tracks) {
		return nil
	}
	return &q.tracks[i]
}

// SetState records the state of track i, and the error for Failed.
func (q *Queue) SetState(i int, state TrackState, err error) {
	if t := q.Track(i); t != nil {
		t.State = state
		t.Err = err
	}
}

// SetMeta records tag metadata for track i. Empty values are ignored.
func (q *Queue) SetMeta(i int, title, artist string) {
	t := q.Track(i)
	if t == nil {
		return
	}
	if title != "" {
		t.Title = title
	}
	if artist != "" {
		t.Artist = artist
	}
}
