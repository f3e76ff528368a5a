package fetch

// Status is the terminal status of one task run.
type Status int

const (
	// StatusSuccessful means a peer served the requested data.
	StatusSuccessful Status = iota

	// StatusNoAvailablePeers means every live peer was already queried by the
	// task, or no peer is connected. No request was sent.
	StatusNoAvailablePeers

	// StatusFetchFailed means the selected peer failed to serve valid data:
	// transport error, timeout, empty or undecodable response, or data that
	// does not match the request.
	StatusFetchFailed

	// StatusCancelled means the task was cancelled before the run started.
	StatusCancelled
)

// String returns the snake case name of the status, used in logs and metric labels.
func (s Status) String() string {
	switch s {
	case StatusSuccessful:
		return "successful"
	case StatusNoAvailablePeers:
		return "no_available_peers"
	case StatusFetchFailed:
		return "fetch_failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the immutable outcome of one task run.
//
// The payload is only present on successful results. Results are values:
// two results with the same status and payload are interchangeable.
type Result[T any] struct {
	status  Status
	payload T
}

// Successful creates a successful result carrying payload.
func Successful[T any](payload T) Result[T] {
	return Result[T]{status: StatusSuccessful, payload: payload}
}

// NoAvailablePeers creates a result for a run that found no peer to query.
func NoAvailablePeers[T any]() Result[T] {
	return Result[T]{status: StatusNoAvailablePeers}
}

// FetchFailed creates a result for a run whose peer did not serve valid data.
func FetchFailed[T any]() Result[T] {
	return Result[T]{status: StatusFetchFailed}
}

// Cancelled creates a result for a run on a cancelled task.
func Cancelled[T any]() Result[T] {
	return Result[T]{status: StatusCancelled}
}

// Status returns the status of the result.
func (r Result[T]) Status() Status {
	return r.status
}

// Payload returns the fetched data and true on successful results, and the
// zero value and false otherwise.
func (r Result[T]) Payload() (T, bool) {
	if r.status != StatusSuccessful {
		var zero T
		return zero, false
	}
	return r.payload, true
}

// IsSuccessful returns true if the result carries a payload.
func (r Result[T]) IsSuccessful() bool {
	return r.status == StatusSuccessful
}
