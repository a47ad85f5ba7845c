package media

import (
	"path/filepath"
	"strings"
)

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

var playlistExts = map[string]bool{
	".m3u":  true,
	".m3u8": true,
	".pls":  true,
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".gif":  true,
}

// IsAudioExt reports whether ext is a decodable audio format.
func IsAudioExt(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// IsPlaylistExt reports whether ext is a supported playlist format.
func IsPlaylistExt(ext string) bool {
	return playlistExts[strings.ToLower(ext)]
}

// BackgroundKind classifies a background asset path.
type BackgroundKind int

const (
	NoBackground BackgroundKind = iota
	ImageBackground
	VideoBackground
)

// ClassifyBackground decides how a background path should be loaded.
func ClassifyBackground(path string) BackgroundKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case path == "":
		return NoBackground
	case imageExts[ext]:
		return ImageBackground
	case videoExts[ext]:
		return VideoBackground
	default:
		return NoBackground
	}
}

// SupportedExtsList returns a human-readable list of playable audio formats.
func SupportedExtsList() string {
	return ".mp3, .wav, .flac, .ogg"
}
