package simulator

import (
	"time"

	"github.com/thep2p/go-beacon-fetch/internal/pool"
)

// Config describes a simulated network and the fetch workload run against it.
type Config struct {
	// Peers is the number of simulated nodes.
	Peers int `validate:"required,gt=0"`

	// Blocks is the length of the generated chain.
	Blocks int `validate:"required,gt=0"`

	// BlobsPerBlock is the number of blob sidecars generated per block.
	BlobsPerBlock int `validate:"gte=0,lte=6"`

	// Availability is the probability that a node holds a given block or
	// sidecar. Every item is held by at least one node.
	Availability float64 `validate:"gt=0,lte=1"`

	// FailureRate is the probability that a node fails a request.
	FailureRate float64 `validate:"gte=0,lt=1"`

	// Latency is the response delay of every node.
	Latency time.Duration `validate:"gte=0"`

	// RequestTimeout bounds a single request. Zero disables the bound.
	RequestTimeout time.Duration `validate:"gte=0"`

	// Pool is the retry and concurrency policy of the fetch pools.
	Pool pool.Config
}

// DefaultConfig returns a small, mildly unreliable network.
func DefaultConfig() Config {
	return Config{
		Peers:          8,
		Blocks:         32,
		BlobsPerBlock:  2,
		Availability:   0.75,
		FailureRate:    0.1,
		Latency:        5 * time.Millisecond,
		RequestTimeout: time.Second,
		Pool:           pool.DefaultConfig(),
	}
}
