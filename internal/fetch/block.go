package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p"
	p2ptypes "github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/types"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/interfaces"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-beacon-fetch/internal/peers"
	"github.com/thep2p/go-beacon-fetch/internal/schema"
	"github.com/thep2p/go-beacon-fetch/internal/transport"
)

var (
	// ErrEmptyResponse is returned when a peer answers without the requested object.
	ErrEmptyResponse = errors.New("empty response")

	// ErrRootMismatch is returned when a peer serves an object for another block root.
	ErrRootMismatch = errors.New("block root mismatch")
)

// BlockByRoot fetches one signed beacon block by its root.
type BlockByRoot struct {
	transport transport.Transport
	schemas   *schema.Registry
	root      common.Hash
}

var _ Fetcher[interfaces.ReadOnlySignedBeaconBlock] = (*BlockByRoot)(nil)

// NewBlockByRoot creates a fetcher for the block with the given root.
func NewBlockByRoot(t transport.Transport, schemas *schema.Registry, root common.Hash) *BlockByRoot {
	return &BlockByRoot{
		transport: t,
		schemas:   schemas,
		root:      root,
	}
}

// NewBlockByRootTask creates a task fetching the block with the given root.
func NewBlockByRootTask(
	logger zerolog.Logger,
	directory peers.Directory,
	t transport.Transport,
	schemas *schema.Registry,
	root common.Hash) *Task[interfaces.ReadOnlySignedBeaconBlock] {
	return NewTask[interfaces.ReadOnlySignedBeaconBlock](logger, directory, NewBlockByRoot(t, schemas, root))
}

// Key returns "block:<root>".
func (b *BlockByRoot) Key() string {
	return "block:" + b.root.Hex()
}

// Root returns the requested block root.
func (b *BlockByRoot) Root() common.Hash {
	return b.root
}

// Fetch sends a blocks-by-root request for the single root and returns the
// decoded block. The block must hash to the requested root.
func (b *BlockByRoot) Fetch(ctx context.Context, pid peer.ID) (interfaces.ReadOnlySignedBeaconBlock, error) {
	req := p2ptypes.BeaconBlockByRootsReq{b.root}

	chunks, err := b.transport.Request(ctx, pid, p2p.RPCBlocksByRootTopicV2, &req)
	if err != nil {
		return nil, fmt.Errorf("request block %s: %w", b.root.Hex(), err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("block %s: %w", b.root.Hex(), ErrEmptyResponse)
	}

	blk, err := b.schemas.DecodeBlock(chunks[0])
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", b.root.Hex(), err)
	}

	root, err := blk.Block().HashTreeRoot()
	if err != nil {
		return nil, fmt.Errorf("hash block %s: %w", b.root.Hex(), err)
	}
	if root != b.root {
		return nil, fmt.Errorf("%w: requested %s, received %s", ErrRootMismatch, b.root.Hex(), common.Hash(root).Hex())
	}

	return blk, nil
}
