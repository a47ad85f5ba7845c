package media

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParsePlaylistM3U(t *testing.T) {
	dir := t.TempDir()
	playlist := filepath.Join(dir, "list.m3u")
	content := "\uFEFF#EXTM3U\n\nsong1.mp3\n#comment\n\"https://example.com/stream\"\nsub/song2.wav\n"
	if err := os.WriteFile(playlist, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ParsePlaylist(playlist)
	if err != nil {
		t.Fatalf("ParsePlaylist: %v", err)
	}
	want := []string{filepath.Join(dir, "song1.mp3"), filepath.Join(dir, "sub", "song2.wav")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParsePlaylistPLS(t *testing.T) {
	dir := t.TempDir()
	playlist := filepath.Join(dir, "list.pls")
	content := "[playlist]\n file1 = one.flac \nTitle1=One\nFile2=https://example.com/live\nFileX=bad.mp3\nFile3=\n"
	if err := os.WriteFile(playlist, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ParsePlaylist(playlist)
	if err != nil {
		t.Fatalf("ParsePlaylist: %v", err)
	}
	if want := []string{filepath.Join(dir, "one.flac")}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParsePlaylistRejectsOtherFormats(t *testing.T) {
	if _, err := ParsePlaylist("songs.txt"); err == nil {
		t.Fatal("expected error")
	}
}

func TestExpandFindsSidecars(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp3")
	b := filepath.Join(dir, "b.flac")
	touch(t, a)
	touch(t, b)
	touch(t, filepath.Join(dir, "a.json"))
	touch(t, filepath.Join(dir, "a.lyrics.json"))
	touch(t, filepath.Join(dir, "readme.txt"))

	playlist := filepath.Join(dir, "list.m3u")
	if err := os.WriteFile(playlist, []byte("b.flac\nmissing.mp3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Expand([]string{a, filepath.Join(dir, "readme.txt"), playlist}, "")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []Entry{
		{Audio: a, Lyrics: filepath.Join(dir, "a.lyrics.json")},
		{Audio: b},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	got, err = Expand([]string{b}, "custom.json")
	if err != nil || got[0].Lyrics != "custom.json" {
		t.Fatalf("explicit lyrics not applied: %+v, %v", got, err)
	}
}

func TestExpandNothingPlayable(t *testing.T) {
	_, err := Expand([]string{filepath.Join(t.TempDir(), "nope.mp3")}, "")
	if !errors.Is(err, ErrNoTracks) {
		t.Fatalf("err = %v", err)
	}
}
