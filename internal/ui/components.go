package ui

import (
	"fmt"
	"strings"
)

var overviewRamp = []rune("▁▂▃▄▅▆▇█")

func clampRatio(elapsed, total float64) float64 {
	if total <= 0 {
		return 0
	}
	r := elapsed / total
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

func renderProgressBar(elapsed, total float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2
	filled := int(clampRatio(elapsed, total) * float64(barWidth))
	return playedStyle.Render(strings.Repeat("━", filled)) + unplayedStyle.Render(strings.Repeat("─", barWidth-filled))
}

// overviewCells resamples peaks to width columns, taking the max of each
// span, and maps them onto block heights.
func overviewCells(peaks []float64, width int) []rune {
	if width <= 0 || len(peaks) == 0 {
		return nil
	}
	out := make([]rune, width)
	for i := range out {
		lo := i * len(peaks) / width
		hi := (i + 1) * len(peaks) / width
		if hi <= lo {
			hi = lo + 1
		}
		var p float64
		for _, v := range peaks[lo:min(hi, len(peaks))] {
			p = max(p, v)
		}
		idx := int(p * float64(len(overviewRamp)-1))
		idx = max(0, min(idx, len(overviewRamp)-1))
		out[i] = overviewRamp[idx]
	}
	return out
}

// renderOverview draws the track's waveform with the played part
// highlighted. It falls back to a plain bar without peaks.
func renderOverview(peaks []float64, elapsed, total float64, width int) string {
	cells := overviewCells(peaks, width)
	if cells == nil {
		return renderProgressBar(elapsed, total, width)
	}
	played := int(clampRatio(elapsed, total) * float64(len(cells)))
	return playedStyle.Render(string(cells[:played])) + unplayedStyle.Render(string(cells[played:]))
}

func renderVolumePercent(vol float64) string {
	return fmt.Sprintf("vol %d%%", int(vol*100+0.5))
}
