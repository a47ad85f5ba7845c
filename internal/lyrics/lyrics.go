// Package lyrics loads timed lyric lines and tracks which one is on screen.
package lyrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/olivier-w/lyricviz/internal/keyframe"
)

// Word is a single timed word inside a line, used for karaoke highlighting.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"startTime"`
	End   float64 `json:"endTime"`
}

// Line is one lyric line with its display window in seconds.
type Line struct {
	ID        string              `json:"id"`
	Text      string              `json:"text"`
	Start     float64             `json:"startTime"`
	End       float64             `json:"endTime"`
	Style     string              `json:"style,omitempty"`
	Palette   string              `json:"palette,omitempty"`
	Sentiment string              `json:"sentimentColor,omitempty"`
	Keyframes []keyframe.Keyframe `json:"keyframes,omitempty"`
	Words     []Word              `json:"words,omitempty"`
}

// Duration returns the line's window length, never negative.
func (l Line) Duration() float64 {
	return math.Max(0, l.End-l.Start)
}

// Contains reports whether t falls inside [Start, End).
func (l Line) Contains(t float64) bool {
	return t >= l.Start && t < l.End
}

// SungWords returns how many words have started by t, and how far the
// last started word has progressed (0..1).
func (l Line) SungWords(t float64) (int, float64) {
	n := sort.Search(len(l.Words), func(i int) bool { return l.Words[i].Start > t })
	if n == 0 {
		return 0, 0
	}
	w := l.Words[n-1]
	return n, keyframe.Progress(w.Start, w.End, t)
}

type document struct {
	Lines []Line `json:"lines"`
}

// Load reads a lyrics file from disk.
func Load(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lyrics: %w", err)
	}
	lines, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// Parse accepts either a bare JSON array of lines or an object with a
// "lines" field. Lines are returned sorted by start time; lines without
// an ID get their original position as one.
func Parse(data []byte) ([]Line, error) {
	data = bytes.TrimSpace(data)
	var lines []Line
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &lines); err != nil {
			return nil, fmt.Errorf("parse lyrics: %w", err)
		}
	} else {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse lyrics: %w", err)
		}
		lines = doc.Lines
	}

	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = strconv.Itoa(i)
		}
		ws := lines[i].Words
		sort.SliceStable(ws, func(a, b int) bool { return ws[a].Start < ws[b].Start })
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Start < lines[j].Start })
	return lines, nil
}

// Active returns the index of the line on screen at playback time t, or -1.
// When windows overlap the most recently started line wins.
func Active(lines []Line, t float64) int {
	if math.IsNaN(t) {
		return -1
	}
	i := sort.Search(len(lines), func(i int) bool { return lines[i].Start > t }) - 1
	for ; i >= 0; i-- {
		if lines[i].Contains(t) {
			return i
		}
	}
	return -1
}
