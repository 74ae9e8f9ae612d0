package telemetry

// History is a bounded FIFO of floats. Pushing onto a full history evicts
// the oldest value.
type History struct {
	values []float64
	size   int
	index  int // next write position
	count  int
}

func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{
		values: make([]float64, size),
		size:   size,
	}
}

func (h *History) Push(v float64) {
	h.values[h.index] = v
	h.index = (h.index + 1) % h.size
	if h.count < h.size {
		h.count++
	}
}

func (h *History) Len() int { return h.count }
func (h *History) Cap() int { return h.size }

// Values returns a copy ordered oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, h.count)
	start := (h.index - h.count + h.size) % h.size
	for i := 0; i < h.count; i++ {
		out[i] = h.values[(start+i)%h.size]
	}
	return out
}

// Last returns the newest value.
func (h *History) Last() (float64, bool) {
	if h.count == 0 {
		return 0, false
	}
	return h.values[(h.index-1+h.size)%h.size], true
}

// Mean is recomputed from the stored values so it never drifts.
func (h *History) Mean() float64 {
	if h.count == 0 {
		return 0
	}
	var sum float64
	for _, v := range h.Values() {
		sum += v
	}
	return sum / float64(h.count)
}

func (h *History) Reset() {
	h.index = 0
	h.count = 0
}
