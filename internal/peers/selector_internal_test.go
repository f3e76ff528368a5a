package peers

import (
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/require"
)

// TestSelectPeerSingleDraw verifies ties are broken with exactly one draw over the minimum-load group.
func TestSelectPeerSingleDraw(t *testing.T) {
	live := []Info{
		{ID: "a", OutstandingRequests: 1},
		{ID: "b", OutstandingRequests: 0},
		{ID: "c", OutstandingRequests: 2},
		{ID: "d", OutstandingRequests: 0},
	}

	calls := 0
	id, ok := selectPeer(live, nil, func(n int) int {
		calls++
		require.Equal(t, 2, n, "draw should cover only the minimum-load peers")
		return 1
	})
	require.True(t, ok)
	require.Equal(t, peer.ID("d"), id)
	require.Equal(t, 1, calls)
}

// TestSelectPeerNoDrawForUniqueMinimum verifies no randomness is consumed when the minimum is unique.
func TestSelectPeerNoDrawForUniqueMinimum(t *testing.T) {
	live := []Info{
		{ID: "a", OutstandingRequests: 1},
		{ID: "b", OutstandingRequests: 0},
	}

	id, ok := selectPeer(live, nil, func(int) int {
		t.Fatal("unexpected draw")
		return 0
	})
	require.True(t, ok)
	require.Equal(t, peer.ID("b"), id)
}
