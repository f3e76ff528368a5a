// Package simnet provides an in-memory peer network serving beacon blocks and
// blob sidecars over the transport capability.
//
// Nodes hold pre-encoded response chunks and can be configured to fail,
// stall or serve corrupted data, which makes the network useful both for
// tests of the fetch engine and for the simulator command.
package simnet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
	ssz "github.com/prysmaticlabs/fastssz"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/encoder"
	p2ptypes "github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/types"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-beacon-fetch/internal/model"
	"github.com/thep2p/go-beacon-fetch/internal/peers"
	"github.com/thep2p/go-beacon-fetch/internal/transport"
)

// ErrUnsupportedRequest is returned for topics or request types a node does not serve.
var ErrUnsupportedRequest = errors.New("unsupported request")

// Network is a set of simulated nodes reachable through the Transport interface.
//
// Every node added to the network is connected in the peer table, and removed
// nodes are disconnected, so the table always mirrors the network.
type Network struct {
	logger   zerolog.Logger
	table    *peers.Table
	encoding encoder.NetworkEncoding

	mu    sync.RWMutex
	nodes map[peer.ID]*Node
}

var _ transport.Transport = (*Network)(nil)

// NewNetwork creates an empty network backed by the given peer table.
func NewNetwork(logger zerolog.Logger, table *peers.Table, encoding encoder.NetworkEncoding) *Network {
	return &Network{
		logger:   logger.With().Str(model.LogComponent, "simnet").Logger(),
		table:    table,
		encoding: encoding,
		nodes:    make(map[peer.ID]*Node),
	}
}

// AddNode creates a node, connects it in the peer table and returns it.
func (n *Network) AddNode(id peer.ID, opts ...NodeOption) (*Node, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.table.Connect(id); err != nil {
		return nil, fmt.Errorf("add node: %w", err)
	}

	node := newNode(id, n.encoding, opts...)
	n.nodes[id] = node
	n.logger.Debug().Str(model.LogPeerID, id.String()).Msg("node joined")
	return node, nil
}

// RemoveNode disconnects a node from the network and the peer table.
func (n *Network) RemoveNode(id peer.ID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.table.Disconnect(id); err != nil {
		return fmt.Errorf("remove node: %w", err)
	}

	delete(n.nodes, id)
	n.logger.Debug().Str(model.LogPeerID, id.String()).Msg("node left")
	return nil
}

// Node returns the node with the given identity.
func (n *Network) Node(id peer.ID) (*Node, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	node, ok := n.nodes[id]
	return node, ok
}

// Nodes returns all nodes of the network.
func (n *Network) Nodes() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()

	nodes := make([]*Node, 0, len(n.nodes))
	for _, node := range n.nodes {
		nodes = append(nodes, node)
	}
	return nodes
}

// Request serves a req/resp exchange from the addressed node.
//
// Supported topics are blocks by root (v2) and blob sidecars by root (v1).
// Requested objects the node does not hold are omitted from the response, as
// a real peer would do.
func (n *Network) Request(ctx context.Context, pid peer.ID, topic string, req ssz.Marshaler) ([]transport.Chunk, error) {
	node, ok := n.Node(pid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", transport.ErrPeerUnavailable, pid)
	}

	if err := node.exchange(ctx); err != nil {
		n.logger.Debug().Err(err).Str(model.LogPeerID, pid.String()).Str(model.LogTopic, topic).Msg("exchange failed")
		return nil, err
	}

	switch r := req.(type) {
	case *p2ptypes.BeaconBlockByRootsReq:
		if topic != p2p.RPCBlocksByRootTopicV2 {
			return nil, fmt.Errorf("%w: %s for blocks by root", ErrUnsupportedRequest, topic)
		}
		return node.blocksByRoot(*r), nil
	case *p2ptypes.BlobSidecarsByRootReq:
		if topic != p2p.RPCBlobSidecarsByRootTopicV1 {
			return nil, fmt.Errorf("%w: %s for blob sidecars by root", ErrUnsupportedRequest, topic)
		}
		return node.blobSidecarsByRoot(*r), nil
	default:
		return nil, fmt.Errorf("%w: %T on %s", ErrUnsupportedRequest, req, topic)
	}
}

// encode frames msg with the network encoding.
func encode(encoding encoder.NetworkEncoding, msg ssz.Marshaler) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := encoding.EncodeWithMaxLength(&buf, msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
