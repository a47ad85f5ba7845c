package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/olivier-w/lyricviz/internal/export"
	"github.com/olivier-w/lyricviz/internal/lyrics"
	"github.com/olivier-w/lyricviz/internal/player"
	"github.com/olivier-w/lyricviz/internal/queue"
	"github.com/olivier-w/lyricviz/internal/render"
	"github.com/olivier-w/lyricviz/internal/settings"
	"github.com/olivier-w/lyricviz/internal/util"
)

// runExport renders track to out without opening the TUI, printing a
// progress line to w.
func runExport(ctx context.Context, track queue.Track, cfg settings.Visual, style, out string, w io.Writer) error {
	buf, err := player.Decode(track.Path)
	if err != nil {
		return err
	}
	meta := player.ReadMetadata(track.Path)

	var lines []lyrics.Line
	if track.Lyrics != "" {
		lines, err = lyrics.Load(track.Lyrics)
		if err != nil {
			return err
		}
	}

	bg, closer, err := render.OpenBackground(ctx, cfg.Background, cfg.Width, cfg.Height)
	if err != nil {
		log.Printf("[export] background: %v", err)
		fmt.Fprintf(w, "background unavailable, using gradient: %v\n", err)
	} else {
		defer closer.Close()
	}

	job := export.Job{
		Output:     out,
		Audio:      track.Path,
		Buffer:     buf,
		Lines:      lines,
		Meta:       render.Meta{Title: meta.Title, Artist: meta.Artist},
		Settings:   cfg,
		Style:      style,
		Background: bg,
	}

	start := time.Now()
	err = export.Run(ctx, job, func(p export.Progress) {
		fmt.Fprint(w, progressLine(p, time.Since(start)))
	})
	fmt.Fprintln(w)
	if err != nil {
		return fmt.Errorf("export %s: %w", out, err)
	}
	fmt.Fprintf(w, "wrote %s (%s of video in %s)\n", out, util.FormatDuration(buf.Duration()), util.FormatDuration(time.Since(start)))
	return nil
}

func progressLine(p export.Progress, elapsed time.Duration) string {
	return fmt.Sprintf("\rrendering %d/%d frames  %3.0f%%  %s", p.Frame, p.Total, p.Fraction()*100, util.FormatDuration(elapsed))
}
