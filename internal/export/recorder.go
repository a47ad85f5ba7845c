// Package export records the visualization to a video file by piping raw
// frames into ffmpeg.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrFFmpegNotFound is returned by Start when ffmpeg is not on PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg not found")

// Options configures one recording.
type Options struct {
	Output string // destination file, e.g. out.mp4
	Audio  string // audio track muxed into the output; optional
	Width  int
	Height int
	FPS    int
}

// Recorder feeds RGBA frames to an ffmpeg process.
type Recorder struct {
	ID   string
	opts Options

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	cancel context.CancelFunc
	frames int
	done   bool
}

func ffmpegArgs(o Options) []string {
	args := []string{
		"-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", o.Width, o.Height),
		"-r", strconv.Itoa(o.FPS),
		"-thread_queue_size", "512",
		"-i", "pipe:0",
	}
	if o.Audio != "" {
		args = append(args, "-i", o.Audio, "-map", "0:v", "-map", "1:a", "-c:a", "aac", "-shortest")
	}
	args = append(args,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-y", o.Output,
	)
	return args
}

// Start launches ffmpeg. Cancelling ctx kills the process; the partial
// output is removed by Finish or Cancel.
func Start(ctx context.Context, o Options) (*Recorder, error) {
	if o.Width <= 0 || o.Height <= 0 || o.FPS <= 0 {
		return nil, fmt.Errorf("export: invalid geometry %dx%d@%d", o.Width, o.Height, o.FPS)
	}
	if o.Output == "" {
		return nil, errors.New("export: no output path")
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, ErrFFmpegNotFound
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &Recorder{ID: uuid.NewString(), opts: o, cancel: cancel}
	r.cmd = exec.CommandContext(ctx, ffmpeg, ffmpegArgs(o)...)
	r.cmd.Stderr = &r.stderr

	r.stdin, err = r.cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stdin pipe: %w", err)
	}
	if err := r.cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}
	log.Printf("[export] %s started: %s %dx%d@%d", r.ID, o.Output, o.Width, o.Height, o.FPS)
	return r, nil
}

// WriteFrame sends one canvas to ffmpeg. The image must match the
// recording size.
func (r *Recorder) WriteFrame(img *image.RGBA) error {
	if r.done {
		return errors.New("export: recorder finished")
	}
	if img.Rect.Dx() != r.opts.Width || img.Rect.Dy() != r.opts.Height {
		return fmt.Errorf("export: frame is %dx%d, want %dx%d", img.Rect.Dx(), img.Rect.Dy(), r.opts.Width, r.opts.Height)
	}
	if img.Stride == r.opts.Width*4 {
		if _, err := r.stdin.Write(img.Pix[:r.opts.Width*r.opts.Height*4]); err != nil {
			return r.fail(err)
		}
	} else {
		for y := 0; y < r.opts.Height; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+r.opts.Width*4]
			if _, err := r.stdin.Write(row); err != nil {
				return r.fail(err)
			}
		}
	}
	r.frames++
	return nil
}

// Frames returns how many frames were written.
func (r *Recorder) Frames() int { return r.frames }

// Finish closes the frame stream and waits for ffmpeg to write the file.
func (r *Recorder) Finish() error {
	if r.done {
		return nil
	}
	r.done = true
	r.stdin.Close()
	err := r.cmd.Wait()
	r.cancel()
	if err != nil {
		os.Remove(r.opts.Output)
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(r.stderr.String()))
	}
	log.Printf("[export] %s finished: %d frames", r.ID, r.frames)
	return nil
}

// Cancel kills ffmpeg and removes the partial output.
func (r *Recorder) Cancel() {
	if r.done {
		return
	}
	r.done = true
	r.cancel()
	r.stdin.Close()
	r.cmd.Wait()
	os.Remove(r.opts.Output)
	log.Printf("[export] %s cancelled after %d frames", r.ID, r.frames)
}

// fail stops ffmpeg and wraps err with what it printed. stderr is only
// read once Cancel has waited for the process.
func (r *Recorder) fail(err error) error {
	r.Cancel()
	msg := strings.TrimSpace(r.stderr.String())
	if msg != "" {
		return fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return fmt.Errorf("ffmpeg: %w", err)
}
