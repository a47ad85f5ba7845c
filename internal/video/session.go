// Package video decodes background clips through ffmpeg and turns rendered
// canvases into terminal text.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"math"
	"os/exec"
	"sync"
	"time"
)

// ErrFFmpegNotFound is returned when ffmpeg is not on PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg not found")

const maxDecodeFPS = 30

// Session decodes a video file into RGBA frames sized to fit the render
// canvas. The clip loops for as long as playback continues.
type Session struct {
	path  string
	probe Probe
	fps   float64
	w, h  int

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
	closed bool

	frame    *image.RGBA
	frameIdx int64   // index of the frame held in frame (-1 = none)
	origin   float64 // playback time of frame 0 of the current decode
}

// NewSession probes path and prepares a decoder whose frames fit inside a
// canvas of canvasW x canvasH pixels.
func NewSession(ctx context.Context, path string, canvasW, canvasH int) (*Session, error) {
	probe, err := ProbeMedia(ctx, path)
	if err != nil {
		return nil, err
	}
	if !probe.HasVideo {
		return nil, fmt.Errorf("no video stream in %s", path)
	}
	w, h := FitFrame(canvasW, canvasH, probe.Width, probe.Height)
	s := &Session{
		path:     path,
		probe:    probe,
		fps:      math.Min(probe.FPS, maxDecodeFPS),
		w:        w,
		h:        h,
		frame:    image.NewRGBA(image.Rect(0, 0, w, h)),
		frameIdx: -1,
	}
	if err := s.startDecode(0); err != nil {
		return nil, err
	}
	return s, nil
}

// FitFrame scales a srcW x srcH video to fit inside w x h while keeping the
// aspect ratio. Dimensions are even, as ffmpeg's scaler prefers.
func FitFrame(w, h, srcW, srcH int) (int, int) {
	if w <= 0 || h <= 0 || srcW <= 0 || srcH <= 0 {
		return 2, 2
	}
	scale := math.Min(float64(w)/float64(srcW), float64(h)/float64(srcH))
	fw := int(float64(srcW)*scale) &^ 1
	fh := int(float64(srcH)*scale) &^ 1
	return max(fw, 2), max(fh, 2)
}

func (s *Session) startDecode(from float64) error {
	s.stopDecode()

	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return ErrFFmpegNotFound
	}

	seek := from
	if d := s.probe.Duration.Seconds(); d > 0 {
		seek = math.Mod(from, d)
	}

	ctx, cancel := context.WithCancel(context.Background())
	args := []string{"-v", "quiet", "-stream_loop", "-1"}
	if seek > 0 {
		args = append(args, "-ss", formatDuration(time.Duration(seek*float64(time.Second))))
	}
	args = append(args,
		"-i", s.path,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-vf", fmt.Sprintf("scale=%d:%d,fps=%g", s.w, s.h, s.fps),
		"-an",
		"pipe:1",
	)
	cmd := exec.CommandContext(ctx, ffmpeg, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("starting ffmpeg video decode: %w", err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.cancel = cancel
	s.origin = from
	s.frameIdx = -1
	return nil
}

func (s *Session) stopDecode() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.cmd != nil {
		s.cmd.Wait()
		s.cmd = nil
	}
	s.stdout = nil
}

func (s *Session) readNextFrame() bool {
	if s.stdout == nil {
		return false
	}
	if _, err := io.ReadFull(s.stdout, s.frame.Pix); err != nil {
		return false
	}
	s.frameIdx++
	return true
}

// FrameAt returns the frame for playback time t in seconds, reading ahead
// and dropping frames to catch up. Going back more than a second restarts
// the decoder.
// The returned image is reused by the next call. It is nil until the
// first frame arrives.
func (s *Session) FrameAt(t float64) image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	target := int64((t - s.origin) * s.fps)
	if target < 0 || target < s.frameIdx-int64(s.fps) {
		if err := s.startDecode(t); err != nil {
			log.Printf("[video] restart decode: %v", err)
			return nil
		}
		target = 0
	}

	for s.frameIdx < target {
		if !s.readNextFrame() {
			break
		}
	}
	if s.frameIdx < 0 {
		return nil
	}
	return s.frame
}

// Size returns the decoded frame dimensions.
func (s *Session) Size() (int, int) { return s.w, s.h }

// Close stops the decoder. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.stopDecode()
	return nil
}

// formatDuration formats a time.Duration for ffmpeg -ss (HH:MM:SS.mmm).
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := d.Seconds()
	h := int(total) / 3600
	m := (int(total) % 3600) / 60
	sec := total - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, sec)
}
