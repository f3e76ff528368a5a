// Package fetch implements the fetch task: one retryable attempt to retrieve a
// unit of chain data from the peer network.
//
// A Task owns the bookkeeping shared by every kind of fetch (the peers it has
// already queried, its run counter and its cancellation flag) and delegates
// the protocol exchange to a Fetcher. Each call to Run makes at most one
// network attempt; retries are driven by the caller, usually the task pool.
package fetch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-beacon-fetch/internal/model"
	"github.com/thep2p/go-beacon-fetch/internal/peers"
)

// Fetcher performs the protocol exchange of one kind of fetch.
//
// Implementations only map "peer + request parameters" to a protocol call and
// a decoded payload. Any returned error is reported as StatusFetchFailed.
type Fetcher[T any] interface {
	// Key identifies the requested data, e.g. "block:0x...".
	// Two fetchers with the same key request the same data.
	Key() string

	// Fetch requests the data from pid.
	Fetch(ctx context.Context, pid peer.ID) (T, error)
}

// Task is a stateful, retryable fetch of one unit of data.
//
// A Task never queries the same peer twice: every peer a request was sent to is
// remembered for the lifetime of the task. Task is safe for concurrent use.
type Task[T any] struct {
	logger    zerolog.Logger
	fetcher   Fetcher[T]
	directory peers.Directory

	cancelled atomic.Bool

	// mu guards runs and queried, which are updated together on dispatch.
	mu      sync.Mutex
	runs    int
	queried map[peer.ID]struct{}
}

// NewTask creates a task fetching with fetcher from the peers of directory.
func NewTask[T any](logger zerolog.Logger, directory peers.Directory, fetcher Fetcher[T]) *Task[T] {
	return &Task[T]{
		logger:    logger.With().Str(model.LogComponent, "fetch-task").Str(model.LogTask, fetcher.Key()).Logger(),
		fetcher:   fetcher,
		directory: directory,
		queried:   make(map[peer.ID]struct{}),
	}
}

// Key returns the key of the requested data.
func (t *Task[T]) Key() string {
	return t.fetcher.Key()
}

// Run makes one attempt to fetch the data and returns a channel that receives
// exactly one result.
//
// Run never blocks. A cancelled task yields StatusCancelled and a task with no
// unqueried live peer yields StatusNoAvailablePeers; neither counts as a run.
// Otherwise the least loaded unqueried peer is recorded as queried and the
// fetch proceeds in the background until ctx ends or the peer responds.
func (t *Task[T]) Run(ctx context.Context) <-chan Result[T] {
	out := make(chan Result[T], 1)

	if t.cancelled.Load() {
		out <- Cancelled[T]()
		return out
	}

	pid, run, ok := t.dispatch()
	if !ok {
		t.logger.Debug().Msg("no available peers")
		out <- NoAvailablePeers[T]()
		return out
	}

	t.logger.Debug().Str(model.LogPeerID, pid.String()).Int(model.LogRun, run).Msg("fetching from peer")

	go func() {
		payload, err := t.fetcher.Fetch(ctx, pid)
		if err != nil {
			t.logger.Debug().Err(err).Str(model.LogPeerID, pid.String()).Int(model.LogRun, run).Msg("fetch failed")
			out <- FetchFailed[T]()
			return
		}
		out <- Successful(payload)
	}()

	return out
}

// dispatch selects the next peer and records the attempt before any request
// is sent, so a peer is never selected twice even by concurrent runs.
func (t *Task[T]) dispatch() (peer.ID, int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pid, ok := peers.SelectPeer(t.directory.Peers(), t.queried)
	if !ok {
		return "", t.runs, false
	}

	t.runs++
	t.queried[pid] = struct{}{}
	return pid, t.runs, true
}

// Cancel marks the task as cancelled. Every later Run yields StatusCancelled.
// A fetch already in flight is not interrupted. Cancel is idempotent.
func (t *Task[T]) Cancel() {
	if t.cancelled.CompareAndSwap(false, true) {
		t.logger.Debug().Msg("task cancelled")
	}
}

// IsCancelled returns true once Cancel was called.
func (t *Task[T]) IsCancelled() bool {
	return t.cancelled.Load()
}

// NumberOfRuns returns the number of requests the task has sent.
func (t *Task[T]) NumberOfRuns() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.runs
}

// NumberOfRetries returns the number of requests sent after the first one.
func (t *Task[T]) NumberOfRetries() int {
	return max(0, t.NumberOfRuns()-1)
}

// QueriedPeers returns the peers the task has sent a request to, in no particular order.
func (t *Task[T]) QueriedPeers() []peer.ID {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]peer.ID, 0, len(t.queried))
	for id := range t.queried {
		ids = append(ids, id)
	}
	return ids
}
