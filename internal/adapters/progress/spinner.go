package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/vaultsmith-org/vaultsmith/internal/usecase"
)

// SpinnerSink renders progress events with a terminal spinner.
type SpinnerSink struct {
	spinner *spinner.Spinner
}

// NewSpinnerSink creates a spinner-based progress sink.
func NewSpinnerSink() *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.HideCursor = false
	return &SpinnerSink{spinner: s}
}

// OnProgress updates the spinner from a progress event.
func (s *SpinnerSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if event.Spinner {
		if !s.spinner.Active() {
			s.spinner.Start()
		}
		if event.Total > 0 {
			s.spinner.Suffix = fmt.Sprintf(" [%d/%d] %s", event.Current, event.Total, event.Message)
		} else {
			s.spinner.Suffix = " " + event.Message
		}
		return
	}

	if s.spinner.Active() {
		s.spinner.Stop()
	}
	if event.Stage == "vault_completed" {
		color.New(color.FgGreen).Printf("✓ [%d/%d] %s\n", event.Current, event.Total, event.Message)
	}
}

// Info prints an info message, pausing the spinner around it.
func (s *SpinnerSink) Info(message string) {
	wasActive := s.spinner.Active()
	if wasActive {
		s.spinner.Stop()
	}
	color.New(color.FgCyan).Println(message)
	if wasActive {
		s.spinner.Start()
	}
}

// Error prints an error message, pausing the spinner around it.
func (s *SpinnerSink) Error(message string) {
	wasActive := s.spinner.Active()
	if wasActive {
		s.spinner.Stop()
	}
	color.New(color.FgRed).Println(message)
	if wasActive {
		s.spinner.Start()
	}
}

// Stop halts the spinner, if running.
func (s *SpinnerSink) Stop() {
	if s.spinner.Active() {
		s.spinner.Stop()
	}
}

var _ usecase.ProgressSink = (*SpinnerSink)(nil)
