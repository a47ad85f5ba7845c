package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/olivier-w/lyricviz/internal/media"
	"github.com/olivier-w/lyricviz/internal/queue"
	"github.com/olivier-w/lyricviz/internal/render"
)

// buildQueue turns the command-line arguments into a play queue. A single
// audio file queues its sibling audio files too, starting on the one given.
func buildQueue(args []string, lyricsPath string) (*queue.Queue, error) {
	if len(args) == 1 && !media.IsPlaylistExt(filepath.Ext(args[0])) {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", args[0])
		}
		if ext := filepath.Ext(args[0]); !media.IsAudioExt(ext) {
			return nil, fmt.Errorf("unsupported format %s (supported: %s)", ext, media.SupportedExtsList())
		}
	}

	entries, err := media.Expand(args, lyricsPath)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 && len(entries) == 1 {
		if siblings := scanMediaFiles(entries[0].Audio); siblings != nil {
			return siblingQueue(siblings, entries[0]), nil
		}
	}

	tracks := make([]queue.Track, len(entries))
	for i, e := range entries {
		tracks[i] = trackFor(e)
	}
	return queue.New(tracks), nil
}

func siblingQueue(files []string, start media.Entry) *queue.Queue {
	tracks := make([]queue.Track, len(files))
	startIdx := 0
	for i, f := range files {
		e := media.Entry{Audio: f, Lyrics: media.LyricsFor(f)}
		if f == start.Audio {
			e = start
			startIdx = i
		}
		tracks[i] = trackFor(e)
	}
	q := queue.New(tracks)
	q.SetCurrentIndex(startIdx)
	return q
}

func trackFor(e media.Entry) queue.Track {
	return queue.Track{
		Title:  strings.TrimSuffix(filepath.Base(e.Audio), filepath.Ext(e.Audio)),
		Path:   e.Audio,
		Lyrics: e.Lyrics,
	}
}

// scanMediaFiles returns all audio files in the same directory as path,
// sorted alphabetically (case-insensitive). Returns nil if fewer than 2 files found.
func scanMediaFiles(path string) []string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	dir := filepath.Dir(absPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !media.IsAudioExt(filepath.Ext(e.Name())) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) < 2 {
		return nil
	}

	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(files[i])) < strings.ToLower(filepath.Base(files[j]))
	})
	return files
}

// parseSize parses a WxH canvas size.
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(ws))
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("invalid width in %q", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid height in %q", s)
	}
	return w, h, nil
}

func styleList() string {
	return strings.Join(render.Styles(), ", ")
}
