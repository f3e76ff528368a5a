package peers

import (
	"math/rand/v2"

	"github.com/libp2p/go-libp2p/core/peer"
)

// SelectPeer picks the next peer to query from the live peer set.
//
// Peers contained in queried are skipped. Among the remaining peers the ones
// with the lowest OutstandingRequests are kept, and one of them is drawn
// uniformly at random so equally loaded peers share the work regardless of
// their position in live. Returns false if no peer remains.
func SelectPeer(live []Info, queried map[peer.ID]struct{}) (peer.ID, bool) {
	return selectPeer(live, queried, rand.IntN)
}

// selectPeer is SelectPeer with an injectable source of randomness.
// intn must return a value in [0, n).
func selectPeer(live []Info, queried map[peer.ID]struct{}, intn func(n int) int) (peer.ID, bool) {
	var (
		candidates []peer.ID
		minLoad    int
	)

	for _, p := range live {
		if _, seen := queried[p.ID]; seen {
			continue
		}

		switch {
		case len(candidates) == 0 || p.OutstandingRequests < minLoad:
			minLoad = p.OutstandingRequests
			candidates = append(candidates[:0], p.ID)
		case p.OutstandingRequests == minLoad:
			candidates = append(candidates, p.ID)
		}
	}

	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		return candidates[0], true
	default:
		return candidates[intn(len(candidates))], true
	}
}
