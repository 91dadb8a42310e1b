package progress

import (
	"context"

	"github.com/vaultsmith-org/vaultsmith/internal/usecase"
)

// NopSink discards all progress events. Used in non-interactive mode and
// in tests.
type NopSink struct{}

// NewNopSink creates a no-op progress sink.
func NewNopSink() *NopSink {
	return &NopSink{}
}

func (*NopSink) OnProgress(context.Context, usecase.ProgressEvent) {}
func (*NopSink) Info(string)                                       {}
func (*NopSink) Error(string)                                      {}

var _ usecase.ProgressSink = (*NopSink)(nil)
