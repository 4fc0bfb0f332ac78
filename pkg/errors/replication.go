package errors

// ReplicationError carries the follower endpoint and attempt context for a
// failed replication dispatch. Replication failures are never surfaced to
// clients (spec.md §7); this type exists so internal logging and counters
// have structured context to work with.
type ReplicationError struct {
	*baseError
	host       string
	port       int
	retryCount int
}

// NewReplicationError creates a new replication-specific error.
func NewReplicationError(err error, code ErrorCode, msg string) *ReplicationError {
	return &ReplicationError{baseError: NewBaseError(err, code, msg)}
}

// WithEndpoint records which follower was being contacted.
func (re *ReplicationError) WithEndpoint(host string, port int) *ReplicationError {
	re.host = host
	re.port = port
	return re
}

// WithRetryCount records how many times the op had already been retried.
func (re *ReplicationError) WithRetryCount(count int) *ReplicationError {
	re.retryCount = count
	return re
}

// Host returns the follower host.
func (re *ReplicationError) Host() string { return re.host }

// Port returns the follower port.
func (re *ReplicationError) Port() int { return re.port }

// RetryCount returns how many retries had already elapsed.
func (re *ReplicationError) RetryCount() int { return re.retryCount }
