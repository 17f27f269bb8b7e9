// Package progress defines how long running downloads report their advancement.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"
	"github.com/rpdl/rpdl/style"
)

// Sink receives progress updates. Implementations must be safe for use by a
// single writer goroutine.
type Sink interface {
	Start(total int64)
	Advance(n int64)
	SetMessage(message string)
	Finish()
}

// Nop discards every update.
type Nop struct{}

func (Nop) Start(int64)       {}
func (Nop) Advance(int64)     {}
func (Nop) SetMessage(string) {}
func (Nop) Finish()           {}

// Bar draws a single line progress bar, redrawn in place with a carriage return.
// A zero total switches to a plain byte counter.
type Bar struct {
	mu sync.Mutex

	out     io.Writer
	model   progress.Model
	total   int64
	pos     int64
	bytes   bool
	message string
	started time.Time
	width   int
}

// NewBar creates a bar writing to out. With bytes set positions are shown as
// sizes rather than step counts.
func NewBar(out io.Writer, bytes bool) *Bar {
	model := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	model.Width = 30

	return &Bar{
		out:   out,
		model: model,
		bytes: bytes,
	}
}

func (b *Bar) Start(total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total = total
	b.pos = 0
	b.message = ""
	b.started = time.Now()
	b.render()
}

func (b *Bar) Advance(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pos += n
	b.render()
}

func (b *Bar) SetMessage(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.message = message
	b.render()
}

func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.render()
	fmt.Fprintln(b.out)
}

func (b *Bar) count(n int64) string {
	if b.bytes {
		return humanize.Bytes(uint64(n))
	}
	return fmt.Sprint(n)
}

func (b *Bar) render() {
	var sb strings.Builder
	sb.WriteRune('\r')

	if b.total > 0 {
		sb.WriteString(b.model.ViewAs(float64(b.pos) / float64(b.total)))
		sb.WriteString(fmt.Sprintf(" %s/%s", b.count(b.pos), b.count(b.total)))
	} else {
		sb.WriteString(b.count(b.pos))
	}

	if b.message != "" {
		sb.WriteString(" " + b.message)
	}

	if !b.started.IsZero() {
		sb.WriteString(" " + style.Faint(time.Since(b.started).Truncate(time.Second).String()))
	}

	line := sb.String()

	// blank leftovers of a longer previous line
	if pad := b.width - len(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	b.width = len(line)

	_, _ = io.WriteString(b.out, line)
}
