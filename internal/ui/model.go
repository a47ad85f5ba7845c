// Package ui is the terminal front end: it plays the queue, drives the
// render session once per frame and shows a preview of the canvas.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/lyricviz/internal/analysis"
	"github.com/olivier-w/lyricviz/internal/cache"
	"github.com/olivier-w/lyricviz/internal/export"
	"github.com/olivier-w/lyricviz/internal/lyrics"
	"github.com/olivier-w/lyricviz/internal/player"
	"github.com/olivier-w/lyricviz/internal/queue"
	"github.com/olivier-w/lyricviz/internal/render"
	"github.com/olivier-w/lyricviz/internal/settings"
	"github.com/olivier-w/lyricviz/internal/util"
	"github.com/olivier-w/lyricviz/internal/video"
)

const (
	overviewBins = 240
	chromeRows   = 5
	seekStep     = 5 * time.Second
	statusTTL    = 5 * time.Second
)

// Options configures a Model.
type Options struct {
	Settings settings.Visual
	Style    string // overrides Settings.Style when set
	Cache    *cache.Store
}

// Model is the Bubbletea model for the lyricviz TUI.
type Model struct {
	cfg     settings.Visual
	styleID string
	queue   *queue.Queue
	cache   *cache.Store

	loadSeq int
	loading bool
	spinner spinner.Model

	buf      *player.Buffer
	player   *player.Player
	tap      *analysis.RingBuffer
	analyzer *analysis.Analyzer
	window   []int16
	session  *render.Session
	bgCloser io.Closer
	preview  *video.Preview
	meta     player.Metadata
	lines    []lyrics.Line
	hash     string
	peaks    []float64

	frame      string
	cols, rows int
	elapsed    time.Duration
	duration   time.Duration
	volume     float64
	paused     bool
	width      int
	height     int

	exporting    bool
	exportCancel context.CancelFunc
	exportProg   export.Progress
	progress     progress.Model

	status     string
	statusTime time.Time
	err        error
	quitting   bool
}

// New creates a Model that starts with the queue's current track.
func New(q *queue.Queue, opts Options) Model {
	cfg := opts.Settings
	cfg.Sanitize()
	styleID := cfg.Style
	if opts.Style != "" {
		styleID = opts.Style
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	pb := progress.New(
		progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		progress.WithoutPercentage(),
	)
	pb.Width = 30

	an := analysis.NewAnalyzer(analysis.DefaultFFTSize)
	m := Model{
		cfg:      cfg,
		styleID:  styleID,
		queue:    q,
		cache:    opts.Cache,
		spinner:  s,
		progress: pb,
		analyzer: an,
		window:   make([]int16, an.FFTSize()*player.Channels),
		tap:      analysis.NewRingBuffer(an.FFTSize() * player.Channels * 4),
		preview:  video.NewPreview(),
		volume:   0.8,
	}
	if q.Current() != nil {
		m.loadSeq = 1
		m.loading = true
		q.SetState(q.CurrentIndex(), queue.Loading, nil)
	}
	return m
}

// Err returns the error that ended the program, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.cfg.FPS)}
	if t := m.queue.Current(); t != nil {
		cmds = append(cmds, m.spinner.Tick, loadTrackCmd(m.loadSeq, m.queue.CurrentIndex(), *t))
	}
	return tea.Batch(cmds...)
}

func loadTrackCmd(seq, index int, t queue.Track) tea.Cmd {
	return func() tea.Msg {
		msg := trackLoadedMsg{seq: seq, index: index}
		buf, err := player.Decode(t.Path)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.buf = buf
		msg.meta = player.ReadMetadata(t.Path)
		if t.Lyrics != "" {
			lines, err := lyrics.Load(t.Lyrics)
			if err != nil {
				logf("lyrics %s: %v", t.Lyrics, err)
			}
			msg.lines = lines
		}
		if h, err := player.FileHash(t.Path); err == nil {
			msg.hash = h
		}
		return msg
	}
}

func loadBackgroundCmd(session, path string, w, h int) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		bg, closer, err := render.OpenBackground(context.Background(), path, w, h)
		return backgroundMsg{session: session, bg: bg, closer: closer, err: err}
	}
}

// peaksCmd loads the waveform overview from the cache, computing and
// storing it on a miss.
func peaksCmd(session string, store *cache.Store, hash string, buf *player.Buffer) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if store != nil && hash != "" {
			if peaks, err := store.Peaks(ctx, hash, overviewBins); err == nil {
				return peaksMsg{session: session, peaks: peaks}
			}
		}
		peaks := buf.Peaks(overviewBins)
		if store != nil && hash != "" {
			if err := store.PutPeaks(ctx, hash, peaks); err != nil {
				logf("cache peaks: %v", err)
			}
		}
		return peaksMsg{session: session, peaks: peaks}
	}
}

func checkDone(p *player.Player) tea.Cmd {
	return func() tea.Msg {
		<-p.Done()
		return playbackEndedMsg{player: p}
	}
}

func waitForExport(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.renderFrame(time.Time(msg))
		if m.status != "" && time.Since(m.statusTime) > statusTTL {
			m.status = ""
		}
		return m, tickCmd(m.cfg.FPS)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case trackLoadedMsg:
		return m.handleTrackLoaded(msg)

	case backgroundMsg:
		if m.session == nil || msg.session != m.session.ID {
			if msg.closer != nil {
				msg.closer.Close()
			}
			return m, nil
		}
		if msg.err != nil {
			logf("background: %v", msg.err)
			m.setStatus("background unavailable: " + msg.err.Error())
			return m, nil
		}
		m.bgCloser = msg.closer
		m.session.SetBackground(msg.bg)
		return m, nil

	case peaksMsg:
		if m.session != nil && msg.session == m.session.ID {
			m.peaks = msg.peaks
		}
		return m, nil

	case exportProgressMsg:
		if m.session != nil && msg.session == m.session.ID {
			m.exportProg = msg.p
		}
		return m, waitForExport(msg.ch)

	case exportDoneMsg:
		if m.session == nil || msg.session != m.session.ID {
			return m, nil
		}
		m.exporting = false
		m.exportCancel = nil
		switch {
		case msg.err == nil:
			m.setStatus("exported " + filepath.Base(msg.out))
		case errors.Is(msg.err, context.Canceled):
			m.setStatus("export cancelled")
		default:
			m.setStatus("export failed: " + msg.err.Error())
		}
		return m, nil

	case playbackEndedMsg:
		if msg.player != m.player || m.player == nil {
			return m, nil
		}
		m.queue.SetState(m.queue.CurrentIndex(), queue.Done, nil)
		if m.queue.Advance() {
			return m, m.loadCurrent()
		}
		return m.quit()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, min(40, msg.Width/3))
		m.resizeCanvas()
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if isQuit(msg) {
		return m.quit()
	}
	switch msg.String() {
	case "n":
		if m.queue.Len() > 1 && m.queue.Advance() {
			m.queue.SetState(m.queue.CurrentIndex()-1, queue.Ready, nil)
			return m, m.loadCurrent()
		}
		return m, nil
	case "p":
		if m.queue.Len() > 1 && m.queue.Previous() {
			m.queue.SetState(m.queue.CurrentIndex()+1, queue.Ready, nil)
			return m, m.loadCurrent()
		}
		return m, nil
	}

	if m.player == nil || m.session == nil {
		return m, nil
	}
	switch msg.String() {
	case " ":
		m.player.TogglePause()
		m.paused = m.player.Paused()
	case "left", "h":
		m.seek(-seekStep)
	case "right", "l":
		m.seek(seekStep)
	case "+", "=", "up":
		m.player.SetVolume(m.player.Volume() + 0.05)
		m.volume = m.player.Volume()
	case "-", "down":
		m.player.SetVolume(m.player.Volume() - 0.05)
		m.volume = m.player.Volume()
	case "v":
		m.styleID = render.NextStyle(m.session.StyleID())
		m.session.SetStyle(m.styleID)
		m.setStatus("style: " + m.session.StyleID())
	case "e":
		if m.exporting {
			m.exportCancel()
			return m, nil
		}
		return m, m.startExport()
	}
	return m, nil
}

func (m *Model) seek(delta time.Duration) {
	m.player.Seek(delta)
	m.elapsed = m.player.Position()
	m.session.Seek(m.elapsed.Seconds())
	m.analyzer.Reset()
}

func (m Model) handleTrackLoaded(msg trackLoadedMsg) (Model, tea.Cmd) {
	if msg.seq != m.loadSeq {
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		logf("load track %d: %v", msg.index, msg.err)
		m.queue.SetState(msg.index, queue.Failed, msg.err)
		m.setStatus(msg.err.Error())
		if m.queue.Advance() {
			return m, m.loadCurrent()
		}
		m.err = msg.err
		return m.quit()
	}

	p, err := player.New(msg.buf, m.tap)
	if err != nil {
		m.err = fmt.Errorf("audio output: %w", err)
		return m.quit()
	}
	m.player = p
	m.buf = msg.buf
	m.meta = msg.meta
	m.lines = msg.lines
	m.hash = msg.hash
	m.duration = p.Duration()
	p.SetVolume(m.volume)
	m.elapsed = 0
	m.paused = false

	m.session = render.NewSession(m.cfg, msg.lines, render.Meta{Title: msg.meta.Title, Artist: msg.meta.Artist})
	m.session.SetStyle(m.styleID)
	m.resizeCanvas()
	m.analyzer.Reset()

	m.queue.SetState(msg.index, queue.Playing, nil)
	m.queue.SetMeta(msg.index, msg.meta.Title, msg.meta.Artist)
	w, h := m.session.Size()
	return m, tea.Batch(
		checkDone(p),
		loadBackgroundCmd(m.session.ID, m.cfg.Background, w, h),
		peaksCmd(m.session.ID, m.cache, msg.hash, msg.buf),
		tea.SetWindowTitle(windowTitle(msg.meta.Title)),
	)
}

// loadCurrent tears the playing track down and starts loading the queue's
// current track.
func (m *Model) loadCurrent() tea.Cmd {
	m.teardown()
	t := m.queue.Current()
	if t == nil {
		return nil
	}
	m.loadSeq++
	m.loading = true
	m.queue.SetState(m.queue.CurrentIndex(), queue.Loading, nil)
	return tea.Batch(m.spinner.Tick, loadTrackCmd(m.loadSeq, m.queue.CurrentIndex(), *t))
}

func (m *Model) teardown() {
	if m.exportCancel != nil {
		m.exportCancel()
		m.exportCancel = nil
	}
	m.exporting = false
	if m.player != nil {
		m.player.Close()
		m.player = nil
	}
	if m.bgCloser != nil {
		m.bgCloser.Close()
		m.bgCloser = nil
	}
	m.session = nil
	m.buf = nil
	m.peaks = nil
	m.frame = ""
	m.tap.Clear()
}

func (m Model) quit() (Model, tea.Cmd) {
	m.teardown()
	m.quitting = true
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

// renderFrame advances the session and refreshes the preview. Paused
// playback keeps the last frame.
func (m *Model) renderFrame(now time.Time) {
	if m.player == nil || m.session == nil {
		return
	}
	m.elapsed = m.player.Position()
	m.paused = m.player.Paused()
	if m.paused {
		return
	}
	samples := m.tap.Latest(m.window)
	bins := m.analyzer.Process(samples, player.Channels)
	img := m.session.Frame(render.Input{
		Bins:    bins,
		Samples: samples,
		Time:    m.elapsed.Seconds(),
		Now:     now,
	})
	m.frame = m.preview.Render(img, m.cols, m.rows)
}

// resizeCanvas fits the preview grid to the window and renders the live
// session at a resolution matching it.
func (m *Model) resizeCanvas() {
	if m.width > 0 && m.height > chromeRows {
		m.cols, m.rows = m.preview.CellSize(m.width, m.height-chromeRows, m.cfg.Width, m.cfg.Height)
	}
	if m.session == nil {
		return
	}
	m.session.Resize(previewCanvas(m.cols, m.cfg))
}

func previewCanvas(cols int, cfg settings.Visual) (int, int) {
	w := cols * 4
	if w <= 0 {
		w = 320
	}
	w = min(w, cfg.Width) &^ 1
	h := (w * cfg.Height / cfg.Width) &^ 1
	return max(w, 16), max(h, 16)
}

func (m *Model) startExport() tea.Cmd {
	t := m.queue.Current()
	if t == nil || m.buf == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.exportCancel = cancel
	m.exporting = true
	m.exportProg = export.Progress{}

	sid := m.session.ID
	out := ExportPath(t.Path)
	job := export.Job{
		Output:   out,
		Audio:    t.Path,
		Buffer:   m.buf,
		Lines:    m.lines,
		Meta:     render.Meta{Title: m.meta.Title, Artist: m.meta.Artist},
		Settings: m.cfg,
		Style:    m.session.StyleID(),
	}
	cfg := m.cfg

	ch := make(chan tea.Msg, 16)
	go func() {
		defer close(ch)
		bg, closer, err := render.OpenBackground(ctx, cfg.Background, cfg.Width, cfg.Height)
		if err != nil {
			logf("export background: %v", err)
		} else {
			defer closer.Close()
			job.Background = bg
		}
		err = export.Run(ctx, job, func(p export.Progress) {
			select {
			case ch <- exportProgressMsg{session: sid, ch: ch, p: p}:
			default:
			}
		})
		ch <- exportDoneMsg{session: sid, out: out, err: err}
	}()
	m.setStatus("exporting to " + filepath.Base(out))
	return waitForExport(ch)
}

// ExportPath derives the video path for an audio file.
func ExportPath(audio string) string {
	return strings.TrimSuffix(audio, filepath.Ext(audio)) + ".lyricviz.mp4"
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusTime = time.Now()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	w := m.width
	if w < 30 {
		w = 60
	}

	var b strings.Builder
	switch {
	case m.frame != "":
		b.WriteString(m.frame)
		b.WriteString("\n")
	case m.loading:
		name := ""
		if t := m.queue.Current(); t != nil {
			name = filepath.Base(t.Path)
		}
		b.WriteString("\n  " + m.spinner.View() + " " + statusStyle.Render("loading "+name) + "\n")
	default:
		b.WriteString("\n")
	}

	title := titleStyle.Render(m.meta.Title)
	if m.meta.Artist != "" {
		title += "  " + artistStyle.Render(m.meta.Artist)
	}
	if m.queue.Len() > 1 {
		title += "  " + timeStyle.Render(fmt.Sprintf("[%d/%d]", m.queue.CurrentIndex()+1, m.queue.Len()))
		if next := m.queue.Peek(1); len(next) == 1 {
			title += "  " + helpStyle.Render("next: "+trackName(next[0]))
		}
	}
	b.WriteString("  " + title + "\n")

	el, du := util.FormatDuration(m.elapsed), util.FormatDuration(m.duration)
	barWidth := max(10, w-len(el)-len(du)-6)
	bar := renderOverview(m.peaks, m.elapsed.Seconds(), m.duration.Seconds(), barWidth)
	b.WriteString(fmt.Sprintf("  %s %s %s\n", timeStyle.Render(el), bar, timeStyle.Render(du)))

	b.WriteString("  " + m.statusLine(w) + "\n")
	b.WriteString("  " + helpStyle.Render(helpText(m.queue.Len() > 1, m.exporting)))
	return b.String()
}

func (m Model) statusLine(w int) string {
	icon, state := "▶", "playing"
	if m.paused {
		icon, state = "❚❚", "paused"
	}
	left := fmt.Sprintf("%s  %s", icon, state)
	if m.session != nil {
		f := m.session.Features()
		left += fmt.Sprintf("  %s  %3.0f bpm", m.session.StyleID(), f.BPM)
	}
	left = statusStyle.Render(left)

	switch {
	case m.exporting:
		left += "  " + m.progress.ViewAs(m.exportProg.Fraction()) + " " + statusStyle.Render(fmt.Sprintf("%d/%d", m.exportProg.Frame, m.exportProg.Total))
	case m.err != nil:
		left += "  " + errorStyle.Render(m.err.Error())
	case m.status != "":
		left += "  " + helpStyle.Render(m.status)
	}

	right := statusStyle.Render(renderVolumePercent(m.volume))
	gap := max(2, w-lipgloss.Width(left)-lipgloss.Width(right)-4)
	return left + strings.Repeat(" ", gap) + right
}

func trackName(t queue.Track) string {
	if t.Title != "" {
		return t.Title
	}
	return strings.TrimSuffix(filepath.Base(t.Path), filepath.Ext(t.Path))
}

func windowTitle(title string) string {
	return "▶ " + title + " · lyricviz"
}

func logf(format string, args ...any) {
	log.Printf("[ui] "+format, args...)
}
