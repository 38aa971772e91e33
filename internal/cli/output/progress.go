package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Progress reports bytes written through it. Pass it to io.MultiWriter next
// to the real destination.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	title   string
	total   int64
	current int64
	width   int
}

// NewProgress creates a progress line on w. A total of 0 means unknown and
// renders a plain byte counter instead of a bar.
func NewProgress(w io.Writer, title string, total int64) *Progress {
	return &Progress{w: w, title: title, total: total, width: 30}
}

// Write counts p and redraws the line.
func (p *Progress) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += int64(len(b))
	p.render()
	return len(b), nil
}

// Written returns the bytes counted so far.
func (p *Progress) Written() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Done draws the final state and ends the line.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render()
	fmt.Fprintln(p.w)
}

func (p *Progress) render() {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %s", p.title, FormatBytes(p.current))
		return
	}

	ratio := float64(p.current) / float64(p.total)
	if ratio > 1 {
		ratio = 1
	}
	filled := int(float64(p.width) * ratio)
	fmt.Fprintf(p.w, "\r%s [%s%s] %3.0f%% (%s/%s)",
		p.title,
		strings.Repeat("#", filled),
		strings.Repeat(".", p.width-filled),
		ratio*100,
		FormatBytes(p.current),
		FormatBytes(p.total),
	)
}

// FormatBytes formats a byte count with binary units.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
