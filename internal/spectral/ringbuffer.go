package spectral

// ringBuffer keeps the most recent mono samples fed to the analyser.
// Callers synchronize access.
type ringBuffer struct {
	buf []float32
	w   int // write position
	len int // current fill level
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{buf: make([]float32, size)}
}

// write appends samples, overwriting the oldest data when full.
func (rb *ringBuffer) write(p []float32) {
	size := len(rb.buf)
	if len(p) >= size {
		copy(rb.buf, p[len(p)-size:])
		rb.w = 0
		rb.len = size
		return
	}
	n := copy(rb.buf[rb.w:], p)
	if n < len(p) {
		copy(rb.buf, p[n:])
	}
	rb.w = (rb.w + len(p)) % size
	rb.len += len(p)
	if rb.len > size {
		rb.len = size
	}
}

// latest copies the len(dst) most recent samples into dst, oldest first.
// When fewer samples are buffered the head of dst is zero-filled.
func (rb *ringBuffer) latest(dst []float32) {
	size := len(rb.buf)
	n := len(dst)
	if n > size {
		clear(dst[:n-size])
		dst = dst[n-size:]
		n = size
	}
	have := rb.len
	if have > n {
		have = n
	}
	clear(dst[:n-have])
	start := (rb.w - have + size) % size
	for i := range have {
		dst[n-have+i] = rb.buf[(start+i)%size]
	}
}

func (rb *ringBuffer) reset() {
	rb.w = 0
	rb.len = 0
	clear(rb.buf)
}
