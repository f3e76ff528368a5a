package unittest

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/encoder"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/prysm/v5/proto/prysm/v1alpha1"
	"github.com/stretchr/testify/require"
	"github.com/thep2p/go-beacon-fetch/internal/schema"
	"github.com/thep2p/go-beacon-fetch/internal/simnet"
)

// RandomRoot generates a random 32-byte root for testing.
//
// The function will fail the test if random byte generation fails.
func RandomRoot(t *testing.T) common.Hash {
	t.Helper()

	b := make([]byte, common.HashLength)
	_, err := rand.Read(b)
	require.NoError(t, err, "failed to generate random bytes for root")

	return common.BytesToHash(b)
}

// PeerIDs returns n distinct peer identities named "peer-0" to "peer-<n-1>".
func PeerIDs(n int) []peer.ID {
	ids := make([]peer.ID, n)
	for i := range ids {
		ids[i] = peer.ID(fmt.Sprintf("peer-%d", i))
	}
	return ids
}

// Registry returns a schema registry of every beacon fork bound to a random
// genesis validators root, using the ssz_snappy network encoding.
func Registry(t *testing.T) *schema.Registry {
	t.Helper()

	r, err := schema.NewBeaconRegistry(&encoder.SszNetworkEncoder{}, RandomRoot(t))
	require.NoError(t, err, "failed to build schema registry")
	return r
}

// Block generates a phase0 block at slot with a random parent and returns it with its root.
func Block(t *testing.T, slot primitives.Slot) (*ethpb.SignedBeaconBlock, common.Hash) {
	t.Helper()

	blk, root, err := simnet.NewBlock(slot, RandomRoot(t))
	require.NoError(t, err, "failed to generate block")
	return blk, root
}

// BlobSidecars generates count blob sidecars for a fresh block at slot and returns them with the block root.
func BlobSidecars(t *testing.T, slot primitives.Slot, count int) ([]*ethpb.BlobSidecar, common.Hash) {
	t.Helper()

	blk, root := Block(t, slot)
	sidecars, err := simnet.NewBlobSidecars(blk, count)
	require.NoError(t, err, "failed to generate blob sidecars")
	return sidecars, root
}
