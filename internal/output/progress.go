package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// ProgressBar tracks items moved while a plan is applied.
// Example: [=========>          ]  3/7 photo.jpg
type ProgressBar struct {
	total   int
	current int
	item    string
	width   int
	mu      sync.Mutex
	writer  io.Writer
}

// NewProgress creates a progress bar for total items.
func NewProgress(total int) *ProgressBar {
	return &ProgressBar{
		total:  total,
		width:  30,
		writer: os.Stdout,
	}
}

// SetWidth sets the width of the bar in characters.
func (p *ProgressBar) SetWidth(width int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width = width
}

// SetWriter sets the output writer (useful for testing).
func (p *ProgressBar) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = w
}

// Advance counts one more finished item and shows its name.
func (p *ProgressBar) Advance(item string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current < p.total {
		p.current++
	}
	p.item = item
	p.render()
}

// Finish completes the bar and moves to a new line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	alreadyDone := p.current == p.total
	p.current = p.total
	p.item = "done"

	if writerIsTTY(p.writer) {
		p.render()
		fmt.Fprintln(p.writer)
		return
	}
	// Non-TTY output only ever prints the completed line.
	if !alreadyDone || p.total == 0 {
		p.render()
	}
}

// render draws the bar (must be called with lock held).
func (p *ProgressBar) render() {
	filled := 0
	if p.total > 0 {
		filled = (p.current * p.width) / p.total
	}

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < p.width; i++ {
		switch {
		case i < filled-1:
			bar.WriteString("=")
		case i == filled-1:
			bar.WriteString(">")
		default:
			bar.WriteString(" ")
		}
	}
	bar.WriteString("]")

	digits := len(fmt.Sprint(p.total))
	line := fmt.Sprintf("%s %*d/%d %s", bar.String(), digits, p.current, p.total, truncatePath(p.item, 40))

	if writerIsTTY(p.writer) {
		// Pad so a shorter item name fully overwrites the previous one.
		fmt.Fprintf(p.writer, "\r%-*s", len(line)+8, line)
		return
	}
	if p.current == p.total {
		fmt.Fprintln(p.writer, line)
	}
}

// Spinner displays an animated spinner with a message while a plan is
// being built. Stability probing can take several seconds, so the spinner
// can show elapsed time.
// Example: |  Checking downloads are complete (4s)
type Spinner struct {
	message     string
	running     bool
	chars       []string
	mu          sync.Mutex
	writer      io.Writer
	ticker      *time.Ticker
	done        chan struct{}
	startTime   time.Time
	showElapsed bool
}

// NewSpinner creates a spinner with a message. It does not start until
// Start is called.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		chars:   []string{"|", "/", "-", "\\"},
		writer:  os.Stdout,
		done:    make(chan struct{}),
	}
}

// WithElapsed makes the spinner append the seconds since Start. It must be
// called before Start and returns the spinner for chaining.
func (s *Spinner) WithElapsed() *Spinner {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showElapsed = true
	return s
}

// SetWriter sets the output writer (useful for testing).
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the spinner animation.
// On a non-TTY writer the message is printed once instead.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.startTime = time.Now()

	if !writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "%s...\n", s.message)
		return
	}

	s.ticker = time.NewTicker(100 * time.Millisecond)
	go func() {
		idx := 0
		for {
			select {
			case <-s.ticker.C:
				s.mu.Lock()
				if !s.running {
					s.mu.Unlock()
					return
				}
				fmt.Fprintf(s.writer, "\r%s  %s", s.chars[idx], s.formatMessage())
				idx = (idx + 1) % len(s.chars)
				s.mu.Unlock()
			case <-s.done:
				return
			}
		}
	}()
}

// formatMessage must be called with lock held.
func (s *Spinner) formatMessage() string {
	if !s.showElapsed {
		return s.message
	}
	return fmt.Sprintf("%s (%ds)", s.message, int(time.Since(s.startTime).Seconds()))
}

// Stop stops the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.done)

	if writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", len(s.formatMessage())+4))
	}
}

// StopWithMessage stops the spinner and prints a final message.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.writer, message)
}
