package fetch_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p"
	p2ptypes "github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/types"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/blocks"
	ethpb "github.com/prysmaticlabs/prysm/v5/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/prysm/v5/runtime/version"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/thep2p/go-beacon-fetch/internal/fetch"
	"github.com/thep2p/go-beacon-fetch/internal/schema"
	"github.com/thep2p/go-beacon-fetch/internal/simnet"
	"github.com/thep2p/go-beacon-fetch/internal/transport"
	"github.com/thep2p/go-beacon-fetch/internal/unittest"
)

func reqFor(root common.Hash) *p2ptypes.BeaconBlockByRootsReq {
	return &p2ptypes.BeaconBlockByRootsReq{root}
}

func denebDigest(t *testing.T, r *schema.Registry) [4]byte {
	t.Helper()

	digest, err := r.DigestOf(version.Deneb)
	require.NoError(t, err)
	return digest
}

// TestBlobSidecarByIDKey verifies the key identifies root and index.
func TestBlobSidecarByIDKey(t *testing.T) {
	root := unittest.RandomRoot(t)
	f := fetch.NewBlobSidecarByID(nil, nil, root, 3)

	require.Equal(t, fmt.Sprintf("blob:%s:3", root.Hex()), f.Key())
}

// TestBlobSidecarByIDSuccess verifies a served blob sidecar is decoded and bound to its block root.
func TestBlobSidecarByIDSuccess(t *testing.T) {
	network, table, registry := newNetwork(t)
	sidecars, root := unittest.BlobSidecars(t, 7, 3)

	node, err := network.AddNode("a")
	require.NoError(t, err)
	for _, sc := range sidecars {
		require.NoError(t, node.ServeBlobSidecar(denebDigest(t, registry), sc))
	}

	task := fetch.NewBlobSidecarByIDTask(zerolog.Nop(), table, network, registry, root, 2)
	res := await(t, task.Run(context.Background()))
	require.Equal(t, fetch.StatusSuccessful, res.Status())

	blob, ok := res.Payload()
	require.True(t, ok)
	require.EqualValues(t, root, blob.BlockRoot())
	require.EqualValues(t, 2, blob.Index)
	require.EqualValues(t, 7, blob.Slot())
	require.Equal(t, sidecars[2].KzgCommitment, blob.KzgCommitment)
}

// TestBlobSidecarByIDMissing verifies a peer without the sidecar yields a failed fetch.
func TestBlobSidecarByIDMissing(t *testing.T) {
	network, table, registry := newNetwork(t)
	sidecars, root := unittest.BlobSidecars(t, 7, 1)

	node, err := network.AddNode("a")
	require.NoError(t, err)
	require.NoError(t, node.ServeBlobSidecar(denebDigest(t, registry), sidecars[0]))

	f := fetch.NewBlobSidecarByID(network, registry, root, 1)
	_, err = f.Fetch(context.Background(), "a")
	require.ErrorIs(t, err, fetch.ErrEmptyResponse)

	task := fetch.NewTask[blocks.ROBlob](zerolog.Nop(), table, f)
	require.Equal(t, fetch.FetchFailed[blocks.ROBlob](), await(t, task.Run(context.Background())))
}

// TestBlobSidecarByIDMismatch verifies sidecars for another index or block are rejected.
func TestBlobSidecarByIDMismatch(t *testing.T) {
	network, _, registry := newNetwork(t)
	sidecars, root := unittest.BlobSidecars(t, 9, 1)
	otherSidecars, otherRoot := unittest.BlobSidecars(t, 10, 1)
	digest := denebDigest(t, registry)

	node, err := network.AddNode("a")
	require.NoError(t, err)
	require.NoError(t, node.ServeBlobSidecar(digest, sidecars[0]))
	require.NoError(t, node.ServeBlobSidecar(digest, otherSidecars[0]))

	// serve the sidecar of index 0 under index 1, and the sidecar of another block under index 2
	node.ServeBlobSidecarChunk(root, 1, servedBlobChunk(t, network, root, 0))
	node.ServeBlobSidecarChunk(root, 2, servedBlobChunk(t, network, otherRoot, 0))

	_, err = fetch.NewBlobSidecarByID(network, registry, root, 1).Fetch(context.Background(), "a")
	require.ErrorIs(t, err, fetch.ErrIndexMismatch)

	_, err = fetch.NewBlobSidecarByID(network, registry, root, 2).Fetch(context.Background(), "a")
	require.ErrorIs(t, err, fetch.ErrRootMismatch)
}

// TestBlobSidecarPreDenebDigest verifies a sidecar sent with a pre-deneb digest is rejected.
func TestBlobSidecarPreDenebDigest(t *testing.T) {
	network, _, registry := newNetwork(t)
	sidecars, root := unittest.BlobSidecars(t, 4, 1)

	node, err := network.AddNode("a")
	require.NoError(t, err)
	require.NoError(t, node.ServeBlobSidecar(phase0Digest(t, registry), sidecars[0]))

	_, err = fetch.NewBlobSidecarByID(network, registry, root, 0).Fetch(context.Background(), "a")
	require.ErrorIs(t, err, schema.ErrNoBlobs)
}

// servedBlobChunk returns the chunk node "a" serves for a blob identifier.
func servedBlobChunk(t *testing.T, network *simnet.Network, root common.Hash, index uint64) transport.Chunk {
	t.Helper()

	chunks, err := network.Request(context.Background(), "a", p2p.RPCBlobSidecarsByRootTopicV1, &p2ptypes.BlobSidecarsByRootReq{
		&ethpb.BlobIdentifier{BlockRoot: root.Bytes(), Index: index},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	return chunks[0]
}
