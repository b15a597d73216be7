package match

import (
	"context"

	"github.com/okian/matchsim/internal/domain/model"
)

// Sink receives snapshots during a match. Publish should not block; its
// errors and panics are logged and otherwise ignored.
type Sink interface {
	Publish(ctx context.Context, s model.Snapshot) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, s model.Snapshot) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, s model.Snapshot) error {
	return f(ctx, s)
}

// Recorder is a Sink that keeps every snapshot in memory.
type Recorder struct {
	Snapshots []model.Snapshot
}

// Publish appends s.
func (r *Recorder) Publish(_ context.Context, s model.Snapshot) error {
	r.Snapshots = append(r.Snapshots, s)
	return nil
}
