package model

const (
	// LogComponent is the field naming the component that emitted a log line.
	LogComponent = "component"

	// LogPeerID is the field carrying the libp2p identity of a remote peer.
	LogPeerID = "peer_id"

	// LogTask is the field carrying the key of a fetch task.
	LogTask = "task"

	// LogStatus is the field carrying the status of a fetch result.
	LogStatus = "status"

	// LogRun is the field carrying the run number of a fetch task.
	LogRun = "run"

	// LogRetries is the field carrying the number of retries a task consumed.
	LogRetries = "retries"

	// LogTopic is the field carrying the req/resp protocol topic of a request.
	LogTopic = "topic"

	// LogBlockRoot is the field carrying a beacon block root.
	LogBlockRoot = "block_root"

	// LogBlobIndex is the field carrying a blob sidecar index.
	LogBlobIndex = "blob_index"

	// LogSlot is the field carrying a beacon chain slot.
	LogSlot = "slot"

	// LogFork is the field carrying a fork name.
	LogFork = "fork"

	// LogBackoff is the field carrying the delay before the next attempt.
	LogBackoff = "backoff"
)

const (
	// MetricStatus is the metric label carrying a fetch result status.
	MetricStatus = "status"
	// MetricPool is the constant metric label naming the pool that reports.
	MetricPool = "pool"
)
