package media

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrNoTracks is returned when nothing playable was found.
var ErrNoTracks = errors.New("no playable audio files")

// Entry is one audio file with its resolved lyric sidecar ("" if none).
type Entry struct {
	Audio  string
	Lyrics string
}

// Expand turns command-line arguments (audio files and playlists) into
// entries. explicitLyrics, when set, is used for the first entry only.
func Expand(args []string, explicitLyrics string) ([]Entry, error) {
	var paths []string
	for _, arg := range args {
		if IsPlaylistExt(filepath.Ext(arg)) {
			items, err := ParsePlaylist(arg)
			if err != nil {
				return nil, err
			}
			paths = append(paths, items...)
			continue
		}
		paths = append(paths, arg)
	}

	var out []Entry
	for _, p := range FilterAudio(paths) {
		out = append(out, Entry{Audio: p, Lyrics: LyricsFor(p)})
	}
	if len(out) == 0 {
		return nil, ErrNoTracks
	}
	if explicitLyrics != "" {
		out[0].Lyrics = explicitLyrics
	}
	return out, nil
}

// LyricsFor finds a lyric sidecar next to an audio file: song.lyrics.json
// is preferred over song.json.
func LyricsFor(audio string) string {
	base := strings.TrimSuffix(audio, filepath.Ext(audio))
	for _, candidate := range []string{base + ".lyrics.json", base + ".json"} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// ParsePlaylist parses a local .m3u/.m3u8/.pls file into paths. Relative
// entries are resolved against the playlist's directory; URLs are skipped.
func ParsePlaylist(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsPlaylistExt(ext) {
		return nil, fmt.Errorf("unsupported playlist format %s", ext)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("playlist is not valid UTF-8")
	}

	baseDir := filepath.Dir(abs)
	scanner := bufio.NewScanner(strings.NewReader(strings.TrimPrefix(string(data), "\uFEFF")))
	var out []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if ext == ".pls" {
			line = plsFile(line)
		} else if strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.Trim(line, `"`)
		if line == "" || strings.Contains(line, "://") {
			continue
		}
		out = append(out, resolve(line, baseDir))
	}
	return out, scanner.Err()
}

// FilterAudio keeps existing, non-directory audio files as absolute paths.
func FilterAudio(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() || !IsAudioExt(filepath.Ext(p)) {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}

// plsFile returns the value of a FileN= line, or "".
func plsFile(line string) string {
	eq := strings.Index(line, "=")
	if eq <= 0 {
		return ""
	}
	key := strings.ToLower(strings.TrimSpace(line[:eq]))
	num := strings.TrimPrefix(key, "file")
	if num == key || num == "" || strings.Trim(num, "0123456789") != "" {
		return ""
	}
	return strings.TrimSpace(line[eq+1:])
}

func resolve(raw, baseDir string) string {
	p := filepath.Clean(raw)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
