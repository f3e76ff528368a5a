package simnet

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	ssz "github.com/prysmaticlabs/fastssz"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/encoder"
	p2ptypes "github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/types"
	fieldparams "github.com/prysmaticlabs/prysm/v5/config/fieldparams"
	ethpb "github.com/prysmaticlabs/prysm/v5/proto/prysm/v1alpha1"
	"github.com/thep2p/go-beacon-fetch/internal/transport"
)

// ErrInjectedFailure is returned by nodes configured to fail requests.
var ErrInjectedFailure = errors.New("injected failure")

type blobKey struct {
	root  [fieldparams.RootLength]byte
	index uint64
}

// Node is one simulated peer.
type Node struct {
	id       peer.ID
	encoding encoder.NetworkEncoding

	mu          sync.Mutex
	latency     time.Duration
	failureRate float64
	failNext    int
	requests    int
	blocks      map[[fieldparams.RootLength]byte]transport.Chunk
	blobs       map[blobKey]transport.Chunk
}

// NodeOption configures a node when it joins the network.
type NodeOption func(*Node)

// WithLatency delays every response of the node by d.
func WithLatency(d time.Duration) NodeOption {
	return func(n *Node) {
		n.latency = d
	}
}

// WithFailureRate makes the node fail each request with probability p.
func WithFailureRate(p float64) NodeOption {
	return func(n *Node) {
		n.failureRate = p
	}
}

// WithFailNext makes the node fail its next count requests.
func WithFailNext(count int) NodeOption {
	return func(n *Node) {
		n.failNext = count
	}
}

func newNode(id peer.ID, encoding encoder.NetworkEncoding, opts ...NodeOption) *Node {
	n := &Node{
		id:       id,
		encoding: encoding,
		blocks:   make(map[[fieldparams.RootLength]byte]transport.Chunk),
		blobs:    make(map[blobKey]transport.Chunk),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ID returns the identity of the node.
func (n *Node) ID() peer.ID {
	return n.id
}

// Requests returns the number of requests the node received.
func (n *Node) Requests() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.requests
}

// FailNext makes the node fail its next count requests.
func (n *Node) FailNext(count int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.failNext = count
}

// ServeBlock stores a block under its root, encoded for the given fork digest.
func (n *Node) ServeBlock(digest [4]byte, root [fieldparams.RootLength]byte, blk ssz.Marshaler) error {
	data, err := encode(n.encoding, blk)
	if err != nil {
		return fmt.Errorf("encode block: %w", err)
	}

	n.ServeBlockChunk(root, transport.Chunk{ForkDigest: digest, Data: data})
	return nil
}

// ServeBlockChunk stores a raw response chunk under a block root.
// The chunk is returned as is, which allows serving corrupted data.
func (n *Node) ServeBlockChunk(root [fieldparams.RootLength]byte, chunk transport.Chunk) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.blocks[root] = chunk
}

// ServeBlobSidecar stores a blob sidecar under the root of its block header and its index.
func (n *Node) ServeBlobSidecar(digest [4]byte, sc *ethpb.BlobSidecar) error {
	if sc.SignedBlockHeader == nil || sc.SignedBlockHeader.Header == nil {
		return errors.New("blob sidecar has no block header")
	}
	root, err := sc.SignedBlockHeader.Header.HashTreeRoot()
	if err != nil {
		return fmt.Errorf("hash block header: %w", err)
	}

	data, err := encode(n.encoding, sc)
	if err != nil {
		return fmt.Errorf("encode blob sidecar: %w", err)
	}

	n.ServeBlobSidecarChunk(root, sc.Index, transport.Chunk{ForkDigest: digest, Data: data})
	return nil
}

// ServeBlobSidecarChunk stores a raw response chunk under a blob identifier.
func (n *Node) ServeBlobSidecarChunk(root [fieldparams.RootLength]byte, index uint64, chunk transport.Chunk) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.blobs[blobKey{root: root, index: index}] = chunk
}

// exchange accounts for one request and applies the configured latency and failures.
func (n *Node) exchange(ctx context.Context) error {
	n.mu.Lock()
	n.requests++
	latency := n.latency
	fail := false
	switch {
	case n.failNext > 0:
		n.failNext--
		fail = true
	case n.failureRate > 0 && rand.Float64() < n.failureRate:
		fail = true
	}
	n.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if fail {
		return fmt.Errorf("%w: %s", ErrInjectedFailure, n.id)
	}
	return nil
}

func (n *Node) blocksByRoot(req p2ptypes.BeaconBlockByRootsReq) []transport.Chunk {
	n.mu.Lock()
	defer n.mu.Unlock()

	var chunks []transport.Chunk
	for _, root := range req {
		if chunk, ok := n.blocks[root]; ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func (n *Node) blobSidecarsByRoot(req p2ptypes.BlobSidecarsByRootReq) []transport.Chunk {
	n.mu.Lock()
	defer n.mu.Unlock()

	var chunks []transport.Chunk
	for _, id := range req {
		if id == nil {
			continue
		}
		key := blobKey{index: id.Index}
		copy(key.root[:], id.BlockRoot)
		if chunk, ok := n.blobs[key]; ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
