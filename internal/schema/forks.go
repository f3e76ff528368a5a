package schema

import (
	"fmt"

	ssz "github.com/prysmaticlabs/fastssz"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/core/signing"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/encoder"
	"github.com/prysmaticlabs/prysm/v5/config/params"
	ethpb "github.com/prysmaticlabs/prysm/v5/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/prysm/v5/runtime/version"
)

// NewBeaconRegistry builds a registry holding every fork of the active beacon
// config, with digests bound to the given genesis validators root.
func NewBeaconRegistry(encoding encoder.NetworkEncoding, genesisValidatorsRoot [32]byte) (*Registry, error) {
	cfg := params.BeaconConfig()

	forks := []struct {
		version     int
		forkVersion []byte
		newBlock    func() ssz.Unmarshaler
	}{
		{version.Phase0, cfg.GenesisForkVersion, func() ssz.Unmarshaler { return &ethpb.SignedBeaconBlock{} }},
		{version.Altair, cfg.AltairForkVersion, func() ssz.Unmarshaler { return &ethpb.SignedBeaconBlockAltair{} }},
		{version.Bellatrix, cfg.BellatrixForkVersion, func() ssz.Unmarshaler { return &ethpb.SignedBeaconBlockBellatrix{} }},
		{version.Capella, cfg.CapellaForkVersion, func() ssz.Unmarshaler { return &ethpb.SignedBeaconBlockCapella{} }},
		{version.Deneb, cfg.DenebForkVersion, func() ssz.Unmarshaler { return &ethpb.SignedBeaconBlockDeneb{} }},
		{version.Electra, cfg.ElectraForkVersion, func() ssz.Unmarshaler { return &ethpb.SignedBeaconBlockElectra{} }},
	}

	r := NewRegistry(encoding)
	for _, f := range forks {
		digest, err := signing.ComputeForkDigest(f.forkVersion, genesisValidatorsRoot[:])
		if err != nil {
			return nil, fmt.Errorf("compute %s fork digest: %w", version.String(f.version), err)
		}

		if err := r.Register(Fork{
			Version:  f.version,
			Digest:   digest,
			NewBlock: f.newBlock,
		}); err != nil {
			return nil, fmt.Errorf("register %s: %w", version.String(f.version), err)
		}
	}
	return r, nil
}
