// Package player decodes audio files into memory and plays them through
// the system output, feeding played samples to the live analyzer.
package player

import (
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/olivier-w/lyricviz/internal/analysis"
)

// pcmReader serves a Buffer as 16-bit LE bytes and tracks the byte offset
// oto has pulled. Everything it hands out is also written to tap.
type pcmReader struct {
	buf *Buffer
	tap *analysis.RingBuffer

	mu  sync.Mutex
	pos int64
}

func (r *pcmReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := int64(len(r.buf.Samples)) * bytesPerSamp
	if r.pos >= total {
		return 0, io.EOF
	}
	n := len(p) / bytesPerSamp
	first := int(r.pos / bytesPerSamp)
	if rest := len(r.buf.Samples) - first; n > rest {
		n = rest
	}
	src := r.buf.Samples[first : first+n]
	for i, s := range src {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
	}
	r.pos += int64(n) * bytesPerSamp
	if r.tap != nil {
		r.tap.Write(src)
	}
	return n * bytesPerSamp, nil
}

func (r *pcmReader) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := int64(len(r.buf.Samples)) * bytesPerSamp
	next := offset
	switch whence {
	case io.SeekCurrent:
		next += r.pos
	case io.SeekEnd:
		next += total
	}
	if next < 0 {
		next = 0
	}
	if next > total {
		next = total
	}
	next -= next % (Channels * bytesPerSamp)
	r.pos = next
	return next, nil
}

func (r *pcmReader) Pos() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

// Player plays one decoded Buffer.
type Player struct {
	buf       *Buffer
	reader    *pcmReader
	tap       *analysis.RingBuffer
	otoPlayer *oto.Player
	volume    float64
	paused    bool
	done      chan struct{}
	doneOnce  sync.Once
	mu        sync.Mutex
	closed    bool
}

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// New starts playing buf from the beginning. Played samples are written to
// tap when it is non-nil.
func New(buf *Buffer, tap *analysis.RingBuffer) (*Player, error) {
	ctx, err := initOto()
	if err != nil {
		return nil, err
	}

	r := &pcmReader{buf: buf, tap: tap}
	p := &Player{
		buf:    buf,
		reader: r,
		tap:    tap,
		volume: 0.8,
		done:   make(chan struct{}),
	}
	p.otoPlayer = ctx.NewPlayer(r)
	p.otoPlayer.SetVolume(p.volume)
	p.otoPlayer.Play()

	go p.monitor()
	return p, nil
}

func (p *Player) monitor() {
	total := int64(len(p.buf.Samples)) * bytesPerSamp
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		done := !p.paused && p.reader.Pos() >= total && p.otoPlayer.BufferedSize() == 0
		p.mu.Unlock()

		if done {
			p.finish()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Done returns a channel that closes when playback finishes or the player
// is closed.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

func (p *Player) finish() {
	p.doneOnce.Do(func() { close(p.done) })
}

// TogglePause toggles between play and pause.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		p.otoPlayer.Play()
	} else {
		p.otoPlayer.Pause()
	}
	p.paused = !p.paused
}

// Paused returns whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns the playback position of what is currently audible:
// bytes pulled by oto minus what is still queued in its buffer.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos := p.reader.Pos() - int64(p.otoPlayer.BufferedSize())
	if pos < 0 {
		pos = 0
	}
	return time.Duration(float64(pos) / bytesPerSec * float64(time.Second))
}

// Duration returns the total duration of the track.
func (p *Player) Duration() time.Duration {
	return p.buf.Duration()
}

// Seek moves playback by delta from the current position.
func (p *Player) Seek(delta time.Duration) {
	p.SeekTo(p.Position() + delta)
}

// SeekTo moves playback to an absolute position, clamped to the track.
// The analysis tap is cleared so stale audio does not leak into the next
// frames.
func (p *Player) SeekTo(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	off := int64(frameAt(pos)) * Channels * bytesPerSamp
	if _, err := p.otoPlayer.Seek(off, io.SeekStart); err != nil {
		return
	}
	if p.tap != nil {
		p.tap.Clear()
	}
}

// Volume returns current volume (0.0 to 1.0).
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetVolume sets volume (clamped to 0.0 - 1.0).
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.volume = v
	p.otoPlayer.SetVolume(v)
}

// Close stops playback. It is safe to call more than once.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.otoPlayer.Pause()
	p.otoPlayer.Close()
	p.finish()
}
