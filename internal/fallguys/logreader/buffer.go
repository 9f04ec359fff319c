package logreader

import "sync"

// LineBuffer is the ordered queue shared by the tailer and the round parser.
// The tailer appends whole batches and the parser drains everything queued in
// one critical section, so every line is handed out exactly once.
type LineBuffer struct {
	mu    sync.Mutex
	lines []*LogLine
}

// NewLineBuffer creates an empty LineBuffer.
func NewLineBuffer() *LineBuffer {
	return &LineBuffer{}
}

// Append queues lines in order.
func (b *LineBuffer) Append(lines ...*LogLine) {
	if len(lines) == 0 {
		return
	}

	b.mu.Lock()
	b.lines = append(b.lines, lines...)
	b.mu.Unlock()
}

// Drain removes and returns every queued line.
func (b *LineBuffer) Drain() []*LogLine {
	b.mu.Lock()
	defer b.mu.Unlock()

	lines := b.lines
	b.lines = nil
	return lines
}

// Len returns the number of queued lines.
func (b *LineBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Clear drops every queued line.
func (b *LineBuffer) Clear() {
	b.mu.Lock()
	b.lines = nil
	b.mu.Unlock()
}
