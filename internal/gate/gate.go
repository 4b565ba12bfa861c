// Package gate serializes access to the embedded analytical engine.
//
// All mutating operations (ingestion, transformation runs) take the full
// gate; ad-hoc read queries take a single slot so they can run
// concurrently with each other but queue behind any in-progress
// mutation. semaphore.Weighted serves waiters in FIFO order, which keeps
// long ingestion jobs from being starved by a stream of short runs.
package gate

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate is a FIFO writer/reader gate over the engine.
type Gate struct {
	sem *semaphore.Weighted
	max int64
}

// New creates a gate allowing up to maxReaders concurrent readers.
func New(maxReaders int64) *Gate {
	if maxReaders < 1 {
		maxReaders = 1
	}
	return &Gate{
		sem: semaphore.NewWeighted(maxReaders),
		max: maxReaders,
	}
}

// Write acquires exclusive access. The returned release func must be
// called exactly once.
func (g *Gate) Write(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, g.max); err != nil {
		return nil, err
	}
	return func() { g.sem.Release(g.max) }, nil
}

// Read acquires shared access. Readers proceed concurrently with each
// other but wait behind a queued or in-progress writer.
func (g *Gate) Read(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { g.sem.Release(1) }, nil
}
