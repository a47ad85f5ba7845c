package visualizer

// Point is a canvas position in pixels.
type Point struct {
	X, Y float64
}

// Trail is a fixed-capacity circular buffer of recent positions. Once the
// buffer is sized, Push never allocates.
type Trail struct {
	buf []Point
	w   int // write position
	n   int // current fill level
}

// SetCap resizes the ring to hold n points. A different capacity drops the
// stored history; the same capacity is a no-op.
func (t *Trail) SetCap(n int) {
	if n < 0 {
		n = 0
	}
	if n == len(t.buf) {
		return
	}
	if n <= cap(t.buf) {
		t.buf = t.buf[:n]
	} else {
		t.buf = make([]Point, n)
	}
	t.w = 0
	t.n = 0
}

// Push appends p, overwriting the oldest point when full.
func (t *Trail) Push(p Point) {
	if len(t.buf) == 0 {
		return
	}
	t.buf[t.w] = p
	t.w = (t.w + 1) % len(t.buf)
	if t.n < len(t.buf) {
		t.n++
	}
}

// Len returns the number of stored points.
func (t *Trail) Len() int { return t.n }

// Cap returns the ring capacity.
func (t *Trail) Cap() int { return len(t.buf) }

// At returns the i-th stored point, oldest first.
func (t *Trail) At(i int) Point {
	size := len(t.buf)
	return t.buf[(t.w-t.n+i+size)%size]
}

// Clear empties the trail without releasing its storage.
func (t *Trail) Clear() {
	t.w = 0
	t.n = 0
}
