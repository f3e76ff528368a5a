package simnet

import (
	"crypto/rand"
	"fmt"

	fieldparams "github.com/prysmaticlabs/prysm/v5/config/fieldparams"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/prysm/v5/proto/prysm/v1alpha1"
)

// NewBlock builds a structurally valid phase0 signed block at the given slot on
// top of parent, and returns it with its block root. State root, randao reveal
// and signature are random; the block is not meant to pass consensus checks.
func NewBlock(slot primitives.Slot, parent [fieldparams.RootLength]byte) (*ethpb.SignedBeaconBlock, [fieldparams.RootLength]byte, error) {
	blk := &ethpb.SignedBeaconBlock{
		Block: &ethpb.BeaconBlock{
			Slot:          slot,
			ProposerIndex: primitives.ValidatorIndex(uint64(slot) % 64),
			ParentRoot:    parent[:],
			StateRoot:     randomBytes(fieldparams.RootLength),
			Body: &ethpb.BeaconBlockBody{
				RandaoReveal: randomBytes(fieldparams.BLSSignatureLength),
				Eth1Data: &ethpb.Eth1Data{
					DepositRoot: make([]byte, fieldparams.RootLength),
					BlockHash:   make([]byte, fieldparams.RootLength),
				},
				Graffiti: make([]byte, fieldparams.RootLength),
			},
		},
		Signature: randomBytes(fieldparams.BLSSignatureLength),
	}

	root, err := blk.Block.HashTreeRoot()
	if err != nil {
		return nil, [fieldparams.RootLength]byte{}, fmt.Errorf("hash block: %w", err)
	}
	return blk, root, nil
}

// NewBlobSidecars builds count blob sidecars committing to the given block.
// Commitments, proofs and blob contents are random placeholders.
func NewBlobSidecars(blk *ethpb.SignedBeaconBlock, count int) ([]*ethpb.BlobSidecar, error) {
	bodyRoot, err := blk.Block.Body.HashTreeRoot()
	if err != nil {
		return nil, fmt.Errorf("hash block body: %w", err)
	}

	header := &ethpb.SignedBeaconBlockHeader{
		Header: &ethpb.BeaconBlockHeader{
			Slot:          blk.Block.Slot,
			ProposerIndex: blk.Block.ProposerIndex,
			ParentRoot:    blk.Block.ParentRoot,
			StateRoot:     blk.Block.StateRoot,
			BodyRoot:      bodyRoot[:],
		},
		Signature: blk.Signature,
	}

	sidecars := make([]*ethpb.BlobSidecar, count)
	for i := range sidecars {
		blob := make([]byte, fieldparams.BlobLength)
		copy(blob, randomBytes(fieldparams.RootLength))

		proof := make([][]byte, fieldparams.KzgCommitmentInclusionProofDepth)
		for j := range proof {
			proof[j] = randomBytes(fieldparams.RootLength)
		}

		sidecars[i] = &ethpb.BlobSidecar{
			Index:                    uint64(i),
			Blob:                     blob,
			KzgCommitment:            randomBytes(fieldparams.BLSPubkeyLength),
			KzgProof:                 randomBytes(fieldparams.BLSPubkeyLength),
			SignedBlockHeader:        header,
			CommitmentInclusionProof: proof,
		}
	}
	return sidecars, nil
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return b
}
