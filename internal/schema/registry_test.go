package schema_test

import (
	"bytes"
	"sync"
	"testing"

	ssz "github.com/prysmaticlabs/fastssz"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/encoder"
	ethpb "github.com/prysmaticlabs/prysm/v5/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/prysm/v5/runtime/version"
	"github.com/stretchr/testify/require"
	"github.com/thep2p/go-beacon-fetch/internal/schema"
	"github.com/thep2p/go-beacon-fetch/internal/transport"
	"github.com/thep2p/go-beacon-fetch/internal/unittest"
)

func phase0Fork(digest [4]byte) schema.Fork {
	return schema.Fork{
		Version:  version.Phase0,
		Digest:   digest,
		NewBlock: func() ssz.Unmarshaler { return &ethpb.SignedBeaconBlock{} },
	}
}

func encode(t *testing.T, msg ssz.Marshaler) []byte {
	t.Helper()

	var buf bytes.Buffer
	_, err := (&encoder.SszNetworkEncoder{}).EncodeWithMaxLength(&buf, msg)
	require.NoError(t, err)
	return buf.Bytes()
}

// TestRegistryRegisterAndGet verifies basic registry operations.
func TestRegistryRegisterAndGet(t *testing.T) {
	r := schema.NewRegistry(&encoder.SszNetworkEncoder{})
	digest := [4]byte{1, 2, 3, 4}

	require.NoError(t, r.Register(phase0Fork(digest)))

	f, err := r.Get(digest)
	require.NoError(t, err)
	require.Equal(t, "phase0", f.Name())
	require.False(t, f.HasBlobs())

	got, err := r.DigestOf(version.Phase0)
	require.NoError(t, err)
	require.Equal(t, digest, got)
}

// TestRegistryDuplicateDigest verifies that registering a digest twice fails.
func TestRegistryDuplicateDigest(t *testing.T) {
	r := schema.NewRegistry(&encoder.SszNetworkEncoder{})
	digest := [4]byte{1, 2, 3, 4}

	require.NoError(t, r.Register(phase0Fork(digest)))
	err := r.Register(phase0Fork(digest))
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}

// TestRegistryMissingConstructor verifies a fork without block constructor is rejected.
func TestRegistryMissingConstructor(t *testing.T) {
	r := schema.NewRegistry(&encoder.SszNetworkEncoder{})
	require.Error(t, r.Register(schema.Fork{Version: version.Phase0}))
}

// TestRegistryUnknownDigest verifies lookups of unregistered digests fail.
func TestRegistryUnknownDigest(t *testing.T) {
	r := schema.NewRegistry(&encoder.SszNetworkEncoder{})

	_, err := r.Get([4]byte{9, 9, 9, 9})
	require.ErrorIs(t, err, schema.ErrUnknownForkDigest)

	_, err = r.DigestOf(version.Deneb)
	require.Error(t, err)
}

// TestBeaconRegistryForks verifies every fork of the beacon config is registered with a distinct digest.
func TestBeaconRegistryForks(t *testing.T) {
	r := unittest.Registry(t)

	require.Equal(t, []string{"phase0", "altair", "bellatrix", "capella", "deneb", "electra"}, r.Available())

	seen := make(map[[4]byte]struct{})
	for _, v := range []int{version.Phase0, version.Altair, version.Bellatrix, version.Capella, version.Deneb, version.Electra} {
		digest, err := r.DigestOf(v)
		require.NoError(t, err)
		require.NotContains(t, seen, digest)
		seen[digest] = struct{}{}

		f, err := r.Get(digest)
		require.NoError(t, err)
		require.Equal(t, v, f.Version)
		require.Equal(t, v >= version.Deneb, f.HasBlobs())
	}
}

// TestDecodeBlock verifies an encoded block decodes under its fork digest.
func TestDecodeBlock(t *testing.T) {
	r := unittest.Registry(t)
	blk, root := unittest.Block(t, 33)
	digest, err := r.DigestOf(version.Phase0)
	require.NoError(t, err)

	got, err := r.DecodeBlock(transport.Chunk{ForkDigest: digest, Data: encode(t, blk)})
	require.NoError(t, err)
	require.Equal(t, version.Phase0, got.Version())

	gotRoot, err := got.Block().HashTreeRoot()
	require.NoError(t, err)
	require.EqualValues(t, root, gotRoot)
}

// TestDecodeBlockWrongFork verifies a block decoded with another fork schema fails.
func TestDecodeBlockWrongFork(t *testing.T) {
	r := unittest.Registry(t)
	blk, _ := unittest.Block(t, 33)
	digest, err := r.DigestOf(version.Deneb)
	require.NoError(t, err)

	_, err = r.DecodeBlock(transport.Chunk{ForkDigest: digest, Data: encode(t, blk)})
	require.Error(t, err)
}

// TestDecodeBlobSidecar verifies an encoded blob sidecar decodes and exposes its block root.
func TestDecodeBlobSidecar(t *testing.T) {
	r := unittest.Registry(t)
	sidecars, root := unittest.BlobSidecars(t, 40, 2)
	digest, err := r.DigestOf(version.Deneb)
	require.NoError(t, err)

	blob, err := r.DecodeBlobSidecar(transport.Chunk{ForkDigest: digest, Data: encode(t, sidecars[1])})
	require.NoError(t, err)
	require.EqualValues(t, root, blob.BlockRoot())
	require.EqualValues(t, 1, blob.Index)

	phase0, err := r.DigestOf(version.Phase0)
	require.NoError(t, err)
	_, err = r.DecodeBlobSidecar(transport.Chunk{ForkDigest: phase0, Data: encode(t, sidecars[1])})
	require.ErrorIs(t, err, schema.ErrNoBlobs)
}

// TestRegistryConcurrentAccess verifies thread-safe registry lookups.
func TestRegistryConcurrentAccess(t *testing.T) {
	r := unittest.Registry(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.DigestOf(version.Capella)
			require.NoError(t, err)
			_ = r.Available()
		}()
	}
	wg.Wait()
}
