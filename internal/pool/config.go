package pool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/thep2p/go-beacon-fetch/internal/fetch"
)

// Config holds the retry and concurrency policy of a Pool.
type Config struct {
	// MaxConcurrent is the number of tasks driven at the same time.
	// Submit blocks while all slots are taken.
	MaxConcurrent int `validate:"required,gt=0"`

	// MaxRetries is the number of failed fetches retried per task.
	// A task that failed MaxRetries+1 times ends with StatusFetchFailed.
	MaxRetries int `validate:"gte=0"`

	// RetryDelay is the pause between a failed fetch and the next run.
	RetryDelay time.Duration `validate:"gte=0"`

	// NoPeersInitialBackoff is the first wait after a run found no available peer.
	NoPeersInitialBackoff time.Duration `validate:"required,gt=0"`

	// NoPeersMaxBackoff caps the exponential wait between runs without peers.
	NoPeersMaxBackoff time.Duration `validate:"required,gtefield=NoPeersInitialBackoff"`

	// NoPeersMaxWait is how long a task keeps waiting for peers since its last
	// network attempt before it ends with StatusNoAvailablePeers.
	// Zero waits until the task is cancelled.
	NoPeersMaxWait time.Duration `validate:"gte=0"`

	// ResultBuffer is the capacity of the outcome channel.
	ResultBuffer int `validate:"gte=0"`
}

// DefaultConfig returns the policy used by the simulator.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:         16,
		MaxRetries:            5,
		RetryDelay:            100 * time.Millisecond,
		NoPeersInitialBackoff: 250 * time.Millisecond,
		NoPeersMaxBackoff:     5 * time.Second,
		NoPeersMaxWait:        time.Minute,
		ResultBuffer:          64,
	}
}

// AttemptObserver is notified of the result of every run of a task, in order.
type AttemptObserver func(key string, status fetch.Status)

// DefaultName is the metrics name of a pool created without WithName.
const DefaultName = "default"

type settings struct {
	name       string
	observer   AttemptObserver
	registerer prometheus.Registerer
}

// Option modifies optional pool settings.
type Option func(*settings)

// WithAttemptObserver registers a callback invoked after every run of every task.
// The callback runs on the task's driver goroutine and must not block.
func WithAttemptObserver(observer AttemptObserver) Option {
	return func(s *settings) {
		s.observer = observer
	}
}

// WithName sets the value of the "pool" label on the pool metrics, so pools
// sharing a registry report separate series.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithRegisterer registers the pool metrics on reg.
// Without it the metrics are kept on a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *settings) {
		s.registerer = reg
	}
}
