package export

import (
	"context"
	"image"
	"math"
	"time"

	"github.com/olivier-w/lyricviz/internal/analysis"
	"github.com/olivier-w/lyricviz/internal/lyrics"
	"github.com/olivier-w/lyricviz/internal/player"
	"github.com/olivier-w/lyricviz/internal/render"
	"github.com/olivier-w/lyricviz/internal/settings"
)

// Job is everything needed to render a track offline.
type Job struct {
	Output     string
	Audio      string // source file, muxed into the output
	Buffer     *player.Buffer
	Lines      []lyrics.Line
	Meta       render.Meta
	Settings   settings.Visual
	Style      string
	Background render.Background
}

// Progress reports how far a running export is.
type Progress struct {
	JobID string
	Frame int
	Total int
}

// Fraction returns progress in 0..1.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return math.Min(1, float64(p.Frame)/float64(p.Total))
}

// FrameSink receives rendered frames.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
}

// epoch anchors the synthetic wall clock so exports are reproducible.
var epoch = time.Unix(0, 0)

// Run renders job at the configured FPS and size into an ffmpeg recording.
// It owns a fresh render session, so live playback is unaffected.
// Cancelling ctx stops ffmpeg and removes the partial file.
func Run(ctx context.Context, job Job, progress func(Progress)) error {
	cfg := job.Settings
	cfg.Sanitize()
	rec, err := Start(ctx, Options{
		Output: job.Output,
		Audio:  job.Audio,
		Width:  cfg.Width,
		Height: cfg.Height,
		FPS:    cfg.FPS,
	})
	if err != nil {
		return err
	}
	if err := renderFrames(ctx, job, rec.ID, rec, progress); err != nil {
		rec.Cancel()
		return err
	}
	return rec.Finish()
}

// renderFrames drives a new session over the whole buffer. The wall clock
// handed to the session advances exactly one frame per frame.
func renderFrames(ctx context.Context, job Job, id string, sink FrameSink, progress func(Progress)) error {
	cfg := job.Settings
	cfg.Sanitize()
	if job.Style != "" {
		cfg.Style = job.Style
	}

	s := render.NewSession(cfg, job.Lines, job.Meta)
	if job.Background != nil {
		s.SetBackground(job.Background)
	}
	an := analysis.NewAnalyzer(analysis.DefaultFFTSize)
	window := make([]int16, an.FFTSize()*player.Channels)

	var dur time.Duration
	if job.Buffer != nil {
		dur = job.Buffer.Duration()
	}
	total := int(math.Ceil(dur.Seconds() * float64(cfg.FPS)))
	frameDur := time.Second / time.Duration(cfg.FPS)

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pos := time.Duration(i) * frameDur
		samples := job.Buffer.Window(pos, window)
		bins := an.Process(samples, player.Channels)

		img := s.Frame(render.Input{
			Bins:    bins,
			Samples: samples,
			Time:    pos.Seconds(),
			Now:     epoch.Add(pos),
		})
		if err := sink.WriteFrame(img); err != nil {
			return err
		}
		if progress != nil {
			progress(Progress{JobID: id, Frame: i + 1, Total: total})
		}
	}
	return nil
}
