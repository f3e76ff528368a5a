// Package peers provides the live peer view consumed by the fetch engine.
//
// The package defines the Directory capability (the set of connected peers and
// their current load) together with Table, a thread-safe in-memory directory,
// and SelectPeer, the selection rule used by every fetch task.
package peers

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
)

var (
	// ErrPeerExists is returned when connecting a peer that is already connected.
	ErrPeerExists = errors.New("peer already connected")

	// ErrPeerNotFound is returned when addressing a peer that is not connected.
	ErrPeerNotFound = errors.New("peer not connected")
)

// Info describes one live peer as seen at the time of the call.
type Info struct {
	// ID is the libp2p identity of the peer.
	ID peer.ID

	// OutstandingRequests is the number of requests currently in flight
	// against the peer. Lower is preferred during selection.
	OutstandingRequests int
}

// Directory exposes the set of currently connected peers.
//
// Implementations must return a fresh snapshot on every call; callers never
// cache the result across selections since the load changes continuously.
type Directory interface {
	// Peers returns the live peers and their load.
	Peers() []Info
}

// Table is a thread-safe Directory backed by an in-memory map.
//
// Table also implements load tracking: Acquire and Release adjust the
// outstanding request count of a peer, which is what SelectPeer ranks on.
type Table struct {
	mu    sync.RWMutex
	peers map[peer.ID]int
}

var _ Directory = (*Table)(nil)

// NewTable creates an empty peer table.
func NewTable() *Table {
	return &Table{
		peers: make(map[peer.ID]int),
	}
}

// Connect adds a peer with no outstanding requests.
//
// Returns ErrPeerExists if the peer is already connected.
func (t *Table) Connect(id peer.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.peers[id]; exists {
		return fmt.Errorf("connect %s: %w", id, ErrPeerExists)
	}

	t.peers[id] = 0
	return nil
}

// Disconnect removes a peer from the table.
//
// Returns ErrPeerNotFound if the peer is not connected.
func (t *Table) Disconnect(id peer.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.peers[id]; !exists {
		return fmt.Errorf("disconnect %s: %w", id, ErrPeerNotFound)
	}

	delete(t.peers, id)
	return nil
}

// Acquire records one more outstanding request against the peer.
// Unknown peers are ignored; the peer may have disconnected concurrently.
func (t *Table) Acquire(id peer.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if load, exists := t.peers[id]; exists {
		t.peers[id] = load + 1
	}
}

// Release records the completion of an outstanding request against the peer.
// The load never drops below zero.
func (t *Table) Release(id peer.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if load, exists := t.peers[id]; exists && load > 0 {
		t.peers[id] = load - 1
	}
}

// Load returns the outstanding request count of a peer.
func (t *Table) Load(id peer.ID) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	load, exists := t.peers[id]
	if !exists {
		return 0, fmt.Errorf("load %s: %w", id, ErrPeerNotFound)
	}
	return load, nil
}

// Peers returns a snapshot of the connected peers.
//
// The returned slice is sorted by peer ID for consistent output.
func (t *Table) Peers() []Info {
	t.mu.RLock()
	defer t.mu.RUnlock()

	infos := make([]Info, 0, len(t.peers))
	for id, load := range t.peers {
		infos = append(infos, Info{ID: id, OutstandingRequests: load})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Len returns the number of connected peers.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.peers)
}
