package runner

import (
	"strings"
	"sync"
)

// ringBuffer keeps the last n lines of process output. The drain goroutine
// appends while the poll loop may read, so access is locked.
type ringBuffer struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newRingBuffer(max int) *ringBuffer {
	return &ringBuffer{max: max}
}

func (r *ringBuffer) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	if len(r.lines) > r.max {
		r.lines = r.lines[len(r.lines)-r.max:]
	}
}

// Tail returns the buffered lines joined with newlines.
func (r *ringBuffer) Tail() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.lines, "\n")
}

func (r *ringBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}
