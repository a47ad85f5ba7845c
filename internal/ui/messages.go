package ui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/lyricviz/internal/export"
	"github.com/olivier-w/lyricviz/internal/lyrics"
	"github.com/olivier-w/lyricviz/internal/player"
	"github.com/olivier-w/lyricviz/internal/render"
)

type tickMsg time.Time

// trackLoadedMsg carries a decoded track. seq ties it to the load request
// that produced it.
type trackLoadedMsg struct {
	seq   int
	index int
	buf   *player.Buffer
	lines []lyrics.Line
	meta  player.Metadata
	hash  string
	err   error
}

// Messages below belong to one render session and are dropped once the
// session has been replaced.

type backgroundMsg struct {
	session string
	bg      render.Background
	closer  io.Closer
	err     error
}

type peaksMsg struct {
	session string
	peaks   []float64
}

type exportProgressMsg struct {
	session string
	ch      <-chan tea.Msg
	p       export.Progress
}

type exportDoneMsg struct {
	session string
	out     string
	err     error
}

type playbackEndedMsg struct {
	player *player.Player
}

func tickCmd(fps int) tea.Cmd {
	if fps <= 0 {
		fps = 30
	}
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
