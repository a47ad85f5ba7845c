package analysis

import (
	"math"
	"testing"
)

func sine(freq float64, frames, channels int) []int16 {
	out := make([]int16, frames*channels)
	for i := 0; i < frames; i++ {
		v := int16(math.Sin(2*math.Pi*freq*float64(i)/44100) * 20000)
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
	}
	return out
}

func TestAnalyzerReturnsNilWithoutSamples(t *testing.T) {
	a := NewAnalyzer(1024)
	if bins := a.Process(nil, 2); bins != nil {
		t.Fatalf("expected nil bins, got %d", len(bins))
	}
}

func TestAnalyzerRoundsToPowerOfTwo(t *testing.T) {
	a := NewAnalyzer(1000)
	if a.FFTSize() != 1024 || a.BinCount() != 512 {
		t.Fatalf("got fft size %d, bins %d", a.FFTSize(), a.BinCount())
	}
}

func TestAnalyzerPeaksAtToneFrequency(t *testing.T) {
	a := NewAnalyzer(1024)
	samples := sine(1000, 4096, 2)
	var bins []uint8
	for i := 0; i < 20; i++ {
		bins = a.Process(samples, 2)
	}
	peak := 0
	for i, v := range bins {
		if v > bins[peak] {
			peak = i
		}
	}
	// 1 kHz at 44.1 kHz with 1024-point FFT lands around bin 23.
	if peak < 21 || peak > 25 {
		t.Fatalf("expected peak near bin 23, got %d", peak)
	}
	if bins[peak] < 200 {
		t.Fatalf("expected strong peak, got %d", bins[peak])
	}
}

func TestAnalyzerSilenceIsZero(t *testing.T) {
	a := NewAnalyzer(512)
	bins := a.Process(make([]int16, 2048), 2)
	for i, v := range bins {
		if v != 0 {
			t.Fatalf("bin %d = %d for silence", i, v)
		}
	}
}

func TestRingBufferLatest(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]int16{1, 2, 3})
	rb.Write([]int16{4, 5})

	dst := make([]int16, 8)
	got := rb.Latest(dst)
	want := []int16{2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Latest()[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	rb.Clear()
	if rb.Len() != 0 || len(rb.Latest(dst)) != 0 {
		t.Fatal("expected empty buffer after Clear")
	}
}
