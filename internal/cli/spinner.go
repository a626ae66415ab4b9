package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerTick = 80 * time.Millisecond

// Spinner animates a status line on statusOut while a fetch or render runs.
// It stays silent when statusOut is not a terminal, so redirected stderr
// and CI logs never see carriage-return frames.
type Spinner struct {
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	animate bool

	mu      sync.Mutex
	message string
	width   int
	once    sync.Once
}

// startSpinner starts a spinner showing message. It stops on Stop or when
// ctx is cancelled.
func startSpinner(ctx context.Context, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	s := &Spinner{
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		animate: isTerminal(statusOut),
		message: message,
	}
	go s.run()
	return s
}

func (s *Spinner) run() {
	defer close(s.stopped)
	if !s.animate {
		<-s.ctx.Done()
		return
	}
	ticker := time.NewTicker(spinnerTick)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.clearLine()
			return
		case <-ticker.C:
			s.mu.Lock()
			line := fmt.Sprintf("%s %s", styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), StyleDim.Render(s.message))
			s.width = max(s.width, len(s.message)+2)
			fmt.Fprintf(statusOut, "\r%s", line)
			s.mu.Unlock()
		}
	}
}

// Update replaces the message, e.g. when a command moves from fetching to
// rendering.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop stops the animation and clears the line. It is safe to call twice.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
	})
}

// StopWithSuccess stops the spinner and prints a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and prints an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(statusOut, "\r%s\r", strings.Repeat(" ", s.width+2))
	}
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
