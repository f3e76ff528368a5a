package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p"
	p2ptypes "github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/types"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/blocks"
	ethpb "github.com/prysmaticlabs/prysm/v5/proto/prysm/v1alpha1"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-beacon-fetch/internal/peers"
	"github.com/thep2p/go-beacon-fetch/internal/schema"
	"github.com/thep2p/go-beacon-fetch/internal/transport"
)

// ErrIndexMismatch is returned when a peer serves a blob sidecar with another index.
var ErrIndexMismatch = errors.New("blob index mismatch")

// BlobSidecarByID fetches one blob sidecar by block root and blob index.
type BlobSidecarByID struct {
	transport transport.Transport
	schemas   *schema.Registry
	root      common.Hash
	index     uint64
}

var _ Fetcher[blocks.ROBlob] = (*BlobSidecarByID)(nil)

// NewBlobSidecarByID creates a fetcher for the blob sidecar identified by root and index.
func NewBlobSidecarByID(t transport.Transport, schemas *schema.Registry, root common.Hash, index uint64) *BlobSidecarByID {
	return &BlobSidecarByID{
		transport: t,
		schemas:   schemas,
		root:      root,
		index:     index,
	}
}

// NewBlobSidecarByIDTask creates a task fetching the blob sidecar identified by root and index.
func NewBlobSidecarByIDTask(
	logger zerolog.Logger,
	directory peers.Directory,
	t transport.Transport,
	schemas *schema.Registry,
	root common.Hash,
	index uint64) *Task[blocks.ROBlob] {
	return NewTask[blocks.ROBlob](logger, directory, NewBlobSidecarByID(t, schemas, root, index))
}

// Key returns "blob:<root>:<index>".
func (b *BlobSidecarByID) Key() string {
	return fmt.Sprintf("blob:%s:%d", b.root.Hex(), b.index)
}

// Fetch sends a blob-sidecars-by-root request for the single identifier and
// returns the decoded sidecar. The sidecar must belong to the requested block
// and carry the requested index.
func (b *BlobSidecarByID) Fetch(ctx context.Context, pid peer.ID) (blocks.ROBlob, error) {
	req := p2ptypes.BlobSidecarsByRootReq{
		&ethpb.BlobIdentifier{BlockRoot: b.root.Bytes(), Index: b.index},
	}

	chunks, err := b.transport.Request(ctx, pid, p2p.RPCBlobSidecarsByRootTopicV1, &req)
	if err != nil {
		return blocks.ROBlob{}, fmt.Errorf("request %s: %w", b.Key(), err)
	}
	if len(chunks) == 0 {
		return blocks.ROBlob{}, fmt.Errorf("%s: %w", b.Key(), ErrEmptyResponse)
	}

	blob, err := b.schemas.DecodeBlobSidecar(chunks[0])
	if err != nil {
		return blocks.ROBlob{}, fmt.Errorf("%s: %w", b.Key(), err)
	}

	if blob.BlockRoot() != b.root {
		return blocks.ROBlob{}, fmt.Errorf("%w: requested %s, received %s",
			ErrRootMismatch, b.root.Hex(), common.Hash(blob.BlockRoot()).Hex())
	}
	if blob.Index != b.index {
		return blocks.ROBlob{}, fmt.Errorf("%w: requested %d, received %d", ErrIndexMismatch, b.index, blob.Index)
	}

	return blob, nil
}
