package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/ports"
)

// Spinner displays an animated spinner during long operations
type Spinner struct {
	frames   []string
	interval time.Duration
	writer   io.Writer
	label    string
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewSpinner creates a new spinner
func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 80 * time.Millisecond,
		writer:   w,
		label:    label,
		stopChan: make(chan struct{}),
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		idx := 0
		for {
			fmt.Fprintf(s.writer, "\r%s %s", s.frames[idx%len(s.frames)], s.label)
			idx++
			select {
			case <-s.stopChan:
				// Clear the spinner line
				fmt.Fprintf(s.writer, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop stops the spinner animation
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SpinningGenerator shows a spinner on w while the wrapped generator works.
type SpinningGenerator struct {
	inner ports.CommandGenerator
	w     io.Writer
}

// NewSpinningGenerator wraps inner.
func NewSpinningGenerator(inner ports.CommandGenerator, w io.Writer) *SpinningGenerator {
	return &SpinningGenerator{inner: inner, w: w}
}

func (g *SpinningGenerator) spin(label string, fn func() (domain.GenerationResult, error)) (domain.GenerationResult, error) {
	sp := NewSpinner(g.w, label)
	sp.Start()
	defer sp.Stop()
	return fn()
}

func (g *SpinningGenerator) Generate(ctx context.Context, name string, args []string) (domain.GenerationResult, error) {
	return g.spin("Generating "+name+"...", func() (domain.GenerationResult, error) {
		return g.inner.Generate(ctx, name, args)
	})
}

func (g *SpinningGenerator) GenerateFromDescription(ctx context.Context, description string) (domain.GenerationResult, error) {
	return g.spin("Generating command...", func() (domain.GenerationResult, error) {
		return g.inner.GenerateFromDescription(ctx, description)
	})
}

func (g *SpinningGenerator) Regenerate(ctx context.Context, req domain.FeedbackRequest) (domain.GenerationResult, error) {
	return g.spin("Regenerating "+req.CommandName+"...", func() (domain.GenerationResult, error) {
		return g.inner.Regenerate(ctx, req)
	})
}

var _ ports.CommandGenerator = (*SpinningGenerator)(nil)
