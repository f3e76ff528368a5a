// Package schema resolves the fork-specific wire types of req/resp payloads.
//
// Block and blob sidecar responses carry a fork digest in their context bytes.
// The Registry maps each digest to the fork whose SSZ schema decodes the
// payload, so the fetch engine can decode responses without knowing about
// protocol upgrades.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ssz "github.com/prysmaticlabs/fastssz"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/encoder"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/interfaces"
	ethpb "github.com/prysmaticlabs/prysm/v5/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/prysm/v5/runtime/version"
	"github.com/thep2p/go-beacon-fetch/internal/transport"
)

var (
	// ErrUnknownForkDigest is returned when a chunk carries a digest no fork is registered for.
	ErrUnknownForkDigest = errors.New("unknown fork digest")

	// ErrNoBlobs is returned when a blob sidecar is decoded under a fork without blobs.
	ErrNoBlobs = errors.New("fork has no blob sidecars")
)

// Fork describes the wire schema of one protocol fork.
type Fork struct {
	// Version is the prysm runtime version of the fork (version.Phase0, ...).
	Version int

	// Digest is the fork digest sent as context bytes of req/resp chunks.
	Digest [4]byte

	// NewBlock returns an empty signed block container of this fork.
	NewBlock func() ssz.Unmarshaler
}

// Name returns the lowercase fork name, e.g. "deneb".
func (f Fork) Name() string {
	return version.String(f.Version)
}

// HasBlobs returns true if blob sidecars exist from this fork on.
func (f Fork) HasBlobs() bool {
	return f.Version >= version.Deneb
}

// Registry maps fork digests to fork schemas.
type Registry struct {
	mu       sync.RWMutex
	forks    map[[4]byte]Fork
	encoding encoder.NetworkEncoding
}

// NewRegistry creates an empty registry decoding payloads with the given network encoding.
//
// Forks must be registered before use.
func NewRegistry(encoding encoder.NetworkEncoding) *Registry {
	return &Registry{
		forks:    make(map[[4]byte]Fork),
		encoding: encoding,
	}
}

// Register adds a fork to the registry.
//
// Returns an error if a fork with the same digest is already registered.
func (r *Registry) Register(f Fork) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.forks[f.Digest]; exists {
		return fmt.Errorf("fork digest %s already registered for %s", hexutil.Encode(f.Digest[:]), existing.Name())
	}
	if f.NewBlock == nil {
		return fmt.Errorf("fork %s has no block constructor", f.Name())
	}

	r.forks[f.Digest] = f
	return nil
}

// Get returns the fork registered for a digest.
func (r *Registry) Get(digest [4]byte) (Fork, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, exists := r.forks[digest]
	if !exists {
		return Fork{}, fmt.Errorf("%w: %s", ErrUnknownForkDigest, hexutil.Encode(digest[:]))
	}
	return f, nil
}

// DigestOf returns the digest registered for a fork version.
func (r *Registry) DigestOf(v int) ([4]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for digest, f := range r.forks {
		if f.Version == v {
			return digest, nil
		}
	}
	return [4]byte{}, fmt.Errorf("fork %s not registered", version.String(v))
}

// Available returns the names of all registered forks in version order.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	forks := make([]Fork, 0, len(r.forks))
	for _, f := range r.forks {
		forks = append(forks, f)
	}
	sort.Slice(forks, func(i, j int) bool {
		return forks[i].Version < forks[j].Version
	})

	names := make([]string, 0, len(forks))
	for _, f := range forks {
		names = append(names, f.Name())
	}
	return names
}

// Encoding returns the network encoding used to decode payloads.
func (r *Registry) Encoding() encoder.NetworkEncoding {
	return r.encoding
}

// DecodeBlock decodes a block response chunk with the schema of its fork.
func (r *Registry) DecodeBlock(chunk transport.Chunk) (interfaces.ReadOnlySignedBeaconBlock, error) {
	f, err := r.Get(chunk.ForkDigest)
	if err != nil {
		return nil, err
	}

	msg := f.NewBlock()
	if err := r.encoding.DecodeWithMaxLength(bytes.NewReader(chunk.Data), msg); err != nil {
		return nil, fmt.Errorf("decode %s block: %w", f.Name(), err)
	}

	blk, err := blocks.NewSignedBeaconBlock(msg)
	if err != nil {
		return nil, fmt.Errorf("wrap %s block: %w", f.Name(), err)
	}
	return blk, nil
}

// DecodeBlobSidecar decodes a blob sidecar response chunk.
//
// The returned blob carries the root of the block it belongs to, computed from
// the embedded block header.
func (r *Registry) DecodeBlobSidecar(chunk transport.Chunk) (blocks.ROBlob, error) {
	f, err := r.Get(chunk.ForkDigest)
	if err != nil {
		return blocks.ROBlob{}, err
	}
	if !f.HasBlobs() {
		return blocks.ROBlob{}, fmt.Errorf("%w: %s", ErrNoBlobs, f.Name())
	}

	sc := &ethpb.BlobSidecar{}
	if err := r.encoding.DecodeWithMaxLength(bytes.NewReader(chunk.Data), sc); err != nil {
		return blocks.ROBlob{}, fmt.Errorf("decode %s blob sidecar: %w", f.Name(), err)
	}

	blob, err := blocks.NewROBlob(sc)
	if err != nil {
		return blocks.ROBlob{}, fmt.Errorf("wrap %s blob sidecar: %w", f.Name(), err)
	}
	return blob, nil
}
