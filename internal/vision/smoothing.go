package vision

// smoother is a fixed-capacity ring of recent classifications with
// majority-vote readout. Ties break toward the most recently seen category.
type smoother[T comparable] struct {
	window []T
	cap    int
}

func newSmoother[T comparable](capacity int) *smoother[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &smoother[T]{cap: capacity}
}

func (s *smoother[T]) Add(value T) {
	s.window = append(s.window, value)
	if len(s.window) > s.cap {
		s.window = s.window[1:]
	}
}

// Current returns the majority category of the window. On an empty window
// the zero value is returned with ok=false.
func (s *smoother[T]) Current() (T, bool) {
	var zero T
	if len(s.window) == 0 {
		return zero, false
	}
	counts := make(map[T]int, len(s.window))
	lastSeen := make(map[T]int, len(s.window))
	for i, v := range s.window {
		counts[v]++
		lastSeen[v] = i
	}
	best := s.window[0]
	bestCount := 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && lastSeen[v] > lastSeen[best]) {
			best = v
			bestCount = n
		}
	}
	return best, true
}

func (s *smoother[T]) Reset() {
	s.window = s.window[:0]
}
