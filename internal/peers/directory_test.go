package peers_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thep2p/go-beacon-fetch/internal/peers"
)

// TestTableConnectAndPeers verifies connected peers are listed with zero load.
func TestTableConnectAndPeers(t *testing.T) {
	table := peers.NewTable()

	require.NoError(t, table.Connect("b"))
	require.NoError(t, table.Connect("a"))

	require.Equal(t, []peers.Info{
		{ID: "a", OutstandingRequests: 0},
		{ID: "b", OutstandingRequests: 0},
	}, table.Peers(), "peers should be sorted by id with zero load")
	require.Equal(t, 2, table.Len())
}

// TestTableDuplicateConnect verifies that connecting a peer twice fails.
func TestTableDuplicateConnect(t *testing.T) {
	table := peers.NewTable()

	require.NoError(t, table.Connect("a"))
	err := table.Connect("a")
	require.ErrorIs(t, err, peers.ErrPeerExists)
}

// TestTableDisconnect verifies disconnected peers disappear from the snapshot.
func TestTableDisconnect(t *testing.T) {
	table := peers.NewTable()
	require.NoError(t, table.Connect("a"))

	require.NoError(t, table.Disconnect("a"))
	require.Empty(t, table.Peers())

	err := table.Disconnect("a")
	require.ErrorIs(t, err, peers.ErrPeerNotFound)
}

// TestTableLoadTracking verifies Acquire and Release adjust the peer load.
func TestTableLoadTracking(t *testing.T) {
	table := peers.NewTable()
	require.NoError(t, table.Connect("a"))

	table.Acquire("a")
	table.Acquire("a")
	load, err := table.Load("a")
	require.NoError(t, err)
	require.Equal(t, 2, load)

	table.Release("a")
	table.Release("a")
	table.Release("a")
	load, err = table.Load("a")
	require.NoError(t, err)
	require.Equal(t, 0, load, "load should never become negative")

	// unknown peers are ignored
	table.Acquire("ghost")
	_, err = table.Load("ghost")
	require.ErrorIs(t, err, peers.ErrPeerNotFound)
}

// TestTableSnapshotIsolation verifies that a snapshot is not affected by later changes.
func TestTableSnapshotIsolation(t *testing.T) {
	table := peers.NewTable()
	require.NoError(t, table.Connect("a"))

	snapshot := table.Peers()
	table.Acquire("a")
	require.NoError(t, table.Connect("b"))

	require.Equal(t, []peers.Info{{ID: "a", OutstandingRequests: 0}}, snapshot)
}

// TestTableConcurrentAccess verifies thread-safe table operations.
func TestTableConcurrentAccess(t *testing.T) {
	table := peers.NewTable()
	require.NoError(t, table.Connect("a"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				table.Acquire("a")
				_ = table.Peers()
				table.Release("a")
			}
		}()
	}
	wg.Wait()

	load, err := table.Load("a")
	require.NoError(t, err)
	require.Equal(t, 0, load)
}

// TestTableImplementsDirectory checks the table can be used as a directory.
func TestTableImplementsDirectory(t *testing.T) {
	var dir peers.Directory = peers.NewTable()
	require.Empty(t, dir.Peers())
}
