// Package simulator runs block and blob sidecar fetches against an in-memory
// network of unreliable peers and reports how the fetch engine fared.
package simulator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/p2p/encoder"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/interfaces"
	"github.com/prysmaticlabs/prysm/v5/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm/v5/runtime/version"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-beacon-fetch/internal/fetch"
	"github.com/thep2p/go-beacon-fetch/internal/model"
	"github.com/thep2p/go-beacon-fetch/internal/peers"
	"github.com/thep2p/go-beacon-fetch/internal/pool"
	"github.com/thep2p/go-beacon-fetch/internal/schema"
	"github.com/thep2p/go-beacon-fetch/internal/simnet"
	"github.com/thep2p/go-beacon-fetch/internal/transport"
	"golang.org/x/sync/errgroup"
)

// Stats counts the terminal outcomes of one kind of fetch.
type Stats struct {
	Outcomes map[fetch.Status]int
	Retries  int
}

func newStats() Stats {
	return Stats{Outcomes: make(map[fetch.Status]int)}
}

func (s Stats) total() int {
	n := 0
	for _, c := range s.Outcomes {
		n += c
	}
	return n
}

// Report summarises a simulation run.
type Report struct {
	Blocks   Stats
	Blobs    Stats
	Requests int
}

// Simulator owns a generated chain served by a simulated network.
type Simulator struct {
	logger    zerolog.Logger
	cfg       Config
	table     *peers.Table
	network   *simnet.Network
	transport transport.Transport
	schemas   *schema.Registry
	registry  prometheus.Registerer

	roots []common.Hash
}

// New builds the network described by cfg and populates it with a generated chain.
// Pool metrics are registered on reg.
func New(logger zerolog.Logger, cfg Config, reg prometheus.Registerer) (*Simulator, error) {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	encoding := &encoder.SszNetworkEncoder{}
	schemas, err := schema.NewBeaconRegistry(encoding, [32]byte{})
	if err != nil {
		return nil, fmt.Errorf("build schema registry: %w", err)
	}

	table := peers.NewTable()
	network := simnet.NewNetwork(logger, table, encoding)

	s := &Simulator{
		logger:    logger.With().Str(model.LogComponent, "simulator").Logger(),
		cfg:       cfg,
		table:     table,
		network:   network,
		transport: transport.WithTimeout(transport.WithLoadTracking(network, table), cfg.RequestTimeout),
		schemas:   schemas,
		registry:  reg,
	}

	nodes := make([]*simnet.Node, 0, cfg.Peers)
	for i := 0; i < cfg.Peers; i++ {
		node, err := network.AddNode(peer.ID(fmt.Sprintf("sim-%02d", i)),
			simnet.WithLatency(cfg.Latency),
			simnet.WithFailureRate(cfg.FailureRate))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err := s.populate(nodes); err != nil {
		return nil, err
	}
	return s, nil
}

// populate generates the chain and spreads its blocks and sidecars over nodes.
func (s *Simulator) populate(nodes []*simnet.Node) error {
	blockDigest, err := s.schemas.DigestOf(version.Phase0)
	if err != nil {
		return err
	}
	blobDigest, err := s.schemas.DigestOf(version.Deneb)
	if err != nil {
		return err
	}

	var parent [32]byte
	for slot := 1; slot <= s.cfg.Blocks; slot++ {
		blk, root, err := simnet.NewBlock(primitives.Slot(slot), parent)
		if err != nil {
			return fmt.Errorf("generate block %d: %w", slot, err)
		}
		sidecars, err := simnet.NewBlobSidecars(blk, s.cfg.BlobsPerBlock)
		if err != nil {
			return fmt.Errorf("generate sidecars of block %d: %w", slot, err)
		}

		for _, node := range s.holders(nodes) {
			if err := node.ServeBlock(blockDigest, root, blk); err != nil {
				return err
			}
		}
		for _, sc := range sidecars {
			for _, node := range s.holders(nodes) {
				if err := node.ServeBlobSidecar(blobDigest, sc); err != nil {
					return err
				}
			}
		}

		s.roots = append(s.roots, root)
		parent = root
	}

	s.logger.Info().
		Int("blocks", len(s.roots)).
		Int("peers", len(nodes)).
		Msg("simulated chain generated")
	return nil
}

// holders picks the nodes storing one item: each with probability
// Availability, and at least one.
func (s *Simulator) holders(nodes []*simnet.Node) []*simnet.Node {
	var picked []*simnet.Node
	for _, node := range nodes {
		if rand.Float64() < s.cfg.Availability {
			picked = append(picked, node)
		}
	}
	if len(picked) == 0 {
		picked = append(picked, nodes[rand.IntN(len(nodes))])
	}
	return picked
}

// Roots returns the roots of the generated chain, in slot order.
func (s *Simulator) Roots() []common.Hash {
	return append([]common.Hash(nil), s.roots...)
}

// Network returns the simulated network, e.g. to add or remove nodes during a run.
func (s *Simulator) Network() *simnet.Network {
	return s.network
}

// Run fetches every block of the chain and all its blob sidecars, and
// reports the outcomes. It returns once every task reached a terminal result
// or ctx ended.
func (s *Simulator) Run(ctx context.Context) (Report, error) {
	blockPool, err := pool.New[interfaces.ReadOnlySignedBeaconBlock](s.logger, s.cfg.Pool,
		pool.WithName("blocks"), pool.WithRegisterer(s.registry))
	if err != nil {
		return Report{}, fmt.Errorf("create block pool: %w", err)
	}
	blobPool, err := pool.New[blocks.ROBlob](s.logger, s.cfg.Pool,
		pool.WithName("blobs"), pool.WithRegisterer(s.registry))
	if err != nil {
		return Report{}, fmt.Errorf("create blob pool: %w", err)
	}

	blockPool.Start(ctx)
	blobPool.Start(ctx)
	defer blockPool.Stop()
	defer blobPool.Stop()

	report := Report{Blocks: newStats(), Blobs: newStats()}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for _, root := range s.roots {
			task := fetch.NewBlockByRootTask(s.logger, s.table, s.transport, s.schemas, root)
			if err := blockPool.Submit(task); err != nil {
				return fmt.Errorf("submit block %s: %w", root.Hex(), err)
			}
		}
		return nil
	})
	g.Go(func() error {
		for _, root := range s.roots {
			for i := 0; i < s.cfg.BlobsPerBlock; i++ {
				task := fetch.NewBlobSidecarByIDTask(s.logger, s.table, s.transport, s.schemas, root, uint64(i))
				if err := blobPool.Submit(task); err != nil {
					return fmt.Errorf("submit blob %s/%d: %w", root.Hex(), i, err)
				}
			}
		}
		return nil
	})
	g.Go(func() error {
		return collect(gctx, blockPool, len(s.roots), func(o pool.Outcome[interfaces.ReadOnlySignedBeaconBlock]) {
			mu.Lock()
			defer mu.Unlock()
			report.Blocks.Outcomes[o.Result.Status()]++
			report.Blocks.Retries += o.Retries
		})
	})
	g.Go(func() error {
		return collect(gctx, blobPool, len(s.roots)*s.cfg.BlobsPerBlock, func(o pool.Outcome[blocks.ROBlob]) {
			mu.Lock()
			defer mu.Unlock()
			report.Blobs.Outcomes[o.Result.Status()]++
			report.Blobs.Retries += o.Retries
		})
	})

	err = g.Wait()
	for _, node := range s.network.Nodes() {
		report.Requests += node.Requests()
	}
	if err != nil {
		return report, err
	}

	s.logger.Info().
		Int("blocks_fetched", report.Blocks.Outcomes[fetch.StatusSuccessful]).
		Int("blocks_total", report.Blocks.total()).
		Int("block_retries", report.Blocks.Retries).
		Int("blobs_fetched", report.Blobs.Outcomes[fetch.StatusSuccessful]).
		Int("blobs_total", report.Blobs.total()).
		Int("blob_retries", report.Blobs.Retries).
		Int("requests", report.Requests).
		Msg("simulation finished")
	return report, nil
}

// collect consumes want outcomes of p.
func collect[T any](ctx context.Context, p *pool.Pool[T], want int, record func(pool.Outcome[T])) error {
	for i := 0; i < want; i++ {
		select {
		case o, ok := <-p.Results():
			if !ok {
				return fmt.Errorf("results closed after %d of %d outcomes", i, want)
			}
			record(o)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
