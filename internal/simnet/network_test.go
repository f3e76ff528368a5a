package simnet_test

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/encoder"
	p2ptypes "github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/types"
	ethpb "github.com/prysmaticlabs/prysm/v5/proto/prysm/v1alpha1"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/thep2p/go-beacon-fetch/internal/peers"
	"github.com/thep2p/go-beacon-fetch/internal/simnet"
	"github.com/thep2p/go-beacon-fetch/internal/transport"
	"github.com/thep2p/go-beacon-fetch/internal/unittest"
)

var digest = [4]byte{0xaa, 0xbb, 0xcc, 0xdd}

func newNetwork() (*simnet.Network, *peers.Table) {
	table := peers.NewTable()
	return simnet.NewNetwork(zerolog.Nop(), table, &encoder.SszNetworkEncoder{}), table
}

// TestNetworkMirrorsPeerTable verifies nodes joining and leaving are reflected in the peer table.
func TestNetworkMirrorsPeerTable(t *testing.T) {
	network, table := newNetwork()

	_, err := network.AddNode("a")
	require.NoError(t, err)
	_, err = network.AddNode("b")
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	require.Len(t, network.Nodes(), 2)

	_, err = network.AddNode("a")
	require.ErrorIs(t, err, peers.ErrPeerExists)

	require.NoError(t, network.RemoveNode("a"))
	require.Equal(t, []peers.Info{{ID: "b"}}, table.Peers())
	_, ok := network.Node("a")
	require.False(t, ok)

	require.ErrorIs(t, network.RemoveNode("a"), peers.ErrPeerNotFound)
}

// TestRequestUnknownPeer verifies requests to absent peers fail.
func TestRequestUnknownPeer(t *testing.T) {
	network, _ := newNetwork()

	_, err := network.Request(context.Background(), "ghost", p2p.RPCBlocksByRootTopicV2, &p2ptypes.BeaconBlockByRootsReq{})
	require.ErrorIs(t, err, transport.ErrPeerUnavailable)
}

// TestRequestBlocksByRoot verifies only the held blocks are returned, in request order.
func TestRequestBlocksByRoot(t *testing.T) {
	network, _ := newNetwork()
	node, err := network.AddNode("a")
	require.NoError(t, err)

	blk1, root1 := unittest.Block(t, 1)
	blk2, root2 := unittest.Block(t, 2)
	missing := unittest.RandomRoot(t)
	require.NoError(t, node.ServeBlock(digest, root1, blk1))
	require.NoError(t, node.ServeBlock(digest, root2, blk2))

	chunks, err := network.Request(context.Background(), "a", p2p.RPCBlocksByRootTopicV2,
		&p2ptypes.BeaconBlockByRootsReq{root2, missing, root1})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, digest, chunks[0].ForkDigest)

	decoded := &ethpb.SignedBeaconBlock{}
	require.NoError(t, (&encoder.SszNetworkEncoder{}).DecodeWithMaxLength(bytesReader(chunks[0].Data), decoded))
	require.Equal(t, blk2.Block.Slot, decoded.Block.Slot)
	require.Equal(t, 1, node.Requests())
}

// TestRequestBlobSidecarsByRoot verifies blob sidecars are served by identifier.
func TestRequestBlobSidecarsByRoot(t *testing.T) {
	network, _ := newNetwork()
	node, err := network.AddNode("a")
	require.NoError(t, err)

	sidecars, root := unittest.BlobSidecars(t, 5, 2)
	for _, sc := range sidecars {
		require.NoError(t, node.ServeBlobSidecar(digest, sc))
	}

	chunks, err := network.Request(context.Background(), "a", p2p.RPCBlobSidecarsByRootTopicV1, &p2ptypes.BlobSidecarsByRootReq{
		{BlockRoot: root.Bytes(), Index: 1},
		{BlockRoot: root.Bytes(), Index: 5},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	decoded := &ethpb.BlobSidecar{}
	require.NoError(t, (&encoder.SszNetworkEncoder{}).DecodeWithMaxLength(bytesReader(chunks[0].Data), decoded))
	require.EqualValues(t, 1, decoded.Index)
}

// TestRequestUnsupported verifies mismatched topics and unknown request types are rejected.
func TestRequestUnsupported(t *testing.T) {
	network, _ := newNetwork()
	_, err := network.AddNode("a")
	require.NoError(t, err)

	_, err = network.Request(context.Background(), "a", p2p.RPCBlobSidecarsByRootTopicV1, &p2ptypes.BeaconBlockByRootsReq{})
	require.ErrorIs(t, err, simnet.ErrUnsupportedRequest)

	_, err = network.Request(context.Background(), "a", p2p.RPCBlocksByRootTopicV2, &p2ptypes.BlobSidecarsByRootReq{})
	require.ErrorIs(t, err, simnet.ErrUnsupportedRequest)

	_, err = network.Request(context.Background(), "a", "/eth2/beacon_chain/req/status/1", &ethpb.Status{})
	require.ErrorIs(t, err, simnet.ErrUnsupportedRequest)
}

// TestInjectedFailures verifies fail-next and failure-rate options.
func TestInjectedFailures(t *testing.T) {
	network, _ := newNetwork()
	flaky, err := network.AddNode("flaky", simnet.WithFailNext(2))
	require.NoError(t, err)
	_, err = network.AddNode("broken", simnet.WithFailureRate(1))
	require.NoError(t, err)

	req := &p2ptypes.BeaconBlockByRootsReq{}
	for i := 0; i < 2; i++ {
		_, err = network.Request(context.Background(), "flaky", p2p.RPCBlocksByRootTopicV2, req)
		require.ErrorIs(t, err, simnet.ErrInjectedFailure)
	}
	_, err = network.Request(context.Background(), "flaky", p2p.RPCBlocksByRootTopicV2, req)
	require.NoError(t, err)

	flaky.FailNext(1)
	_, err = network.Request(context.Background(), "flaky", p2p.RPCBlocksByRootTopicV2, req)
	require.ErrorIs(t, err, simnet.ErrInjectedFailure)
	require.Equal(t, 4, flaky.Requests())

	for i := 0; i < 5; i++ {
		_, err = network.Request(context.Background(), "broken", p2p.RPCBlocksByRootTopicV2, req)
		require.ErrorIs(t, err, simnet.ErrInjectedFailure)
	}
}

// TestLatencyHonoursContext verifies a slow node gives up when the request context ends.
func TestLatencyHonoursContext(t *testing.T) {
	network, _ := newNetwork()
	_, err := network.AddNode("slow", simnet.WithLatency(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = network.Request(ctx, peer.ID("slow"), p2p.RPCBlocksByRootTopicV2, &p2ptypes.BeaconBlockByRootsReq{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
