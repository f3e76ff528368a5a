// Package transport defines the request/response capability the fetch engine
// uses to talk to remote peers.
//
// Connection management, stream multiplexing and response framing live below
// this package. A Transport only issues one typed request to one peer and hands
// back the encoded response chunks.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	ssz "github.com/prysmaticlabs/fastssz"
)

// ErrPeerUnavailable is returned by transports when the target peer cannot be reached.
var ErrPeerUnavailable = errors.New("peer unavailable")

// Chunk is one successful response chunk of a req/resp exchange.
type Chunk struct {
	// ForkDigest is the context bytes sent with the chunk. It identifies the
	// fork whose schema must be used to decode Data.
	ForkDigest [4]byte

	// Data is the ssz_snappy encoded payload.
	Data []byte
}

// Transport issues typed requests to peers.
type Transport interface {
	// Request sends req to the peer under the given protocol topic and returns
	// the response chunks in the order they were received.
	// Any returned error means the exchange failed as a whole.
	Request(ctx context.Context, pid peer.ID, topic string, req ssz.Marshaler) ([]Chunk, error)
}

// LoadTracker is notified around every request so peer load can be ranked.
type LoadTracker interface {
	Acquire(pid peer.ID)
	Release(pid peer.ID)
}

type loadTracking struct {
	next    Transport
	tracker LoadTracker
}

// WithLoadTracking decorates next so the tracker sees each request as
// outstanding until the exchange returns.
func WithLoadTracking(next Transport, tracker LoadTracker) Transport {
	return &loadTracking{next: next, tracker: tracker}
}

func (l *loadTracking) Request(ctx context.Context, pid peer.ID, topic string, req ssz.Marshaler) ([]Chunk, error) {
	l.tracker.Acquire(pid)
	defer l.tracker.Release(pid)

	return l.next.Request(ctx, pid, topic, req)
}

type timeout struct {
	next    Transport
	timeout time.Duration
}

// WithTimeout decorates next so every exchange is bounded by d.
// A non-positive d disables the bound.
func WithTimeout(next Transport, d time.Duration) Transport {
	if d <= 0 {
		return next
	}
	return &timeout{next: next, timeout: d}
}

func (t *timeout) Request(ctx context.Context, pid peer.ID, topic string, req ssz.Marshaler) ([]Chunk, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	chunks, err := t.next.Request(ctx, pid, topic, req)
	if err != nil {
		return nil, fmt.Errorf("request %s to %s: %w", topic, pid, err)
	}
	return chunks, nil
}
