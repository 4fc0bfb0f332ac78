package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary. This includes file system operations like reading or
	// writing segment files, network operations when communicating with remote
	// systems, and device I/O when accessing storage hardware.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints. This maps
	// to HTTP 400-series errors and indicates problems with the request itself
	// rather than system failures.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories. These are the equivalent of HTTP 500 errors and
	// indicate bugs, assertion failures, or other programming errors that
	// shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base error taxonomy to handle the
// unique failure modes that occur in persistent storage systems. These codes
// represent problems that are specific to the storage layer of your key-value
// store, particularly focusing on segment file management and data persistence.
const (
	// ErrorCodeSegmentCorrupted indicates that a segment file's data has been
	// damaged or is in an inconsistent state.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeHeaderReadFailure occurs when the system cannot read the header
	// portion of a segment file. Headers contain critical metadata about the
	// segment's structure, so header read failures prevent access to the
	// entire segment and all data it contains.
	ErrorCodeHeaderReadFailure ErrorCode = "HEADER_READ_FAILURE"

	// ErrorCodePayloadReadFailure indicates problems reading the actual data
	// content from segment files after successfully reading the header. This
	// represents a more localized failure compared to header problems, as the
	// segment structure is intact but specific data regions are inaccessible.
	ErrorCodePayloadReadFailure ErrorCode = "PAYLOAD_READ_FAILURE"

	// ErrorCodeRecoveryFailed indicates that the storage system's attempt to
	// recover from a previous failure was unsuccessful. This represents a
	// compound failure where both the original problem and the recovery
	// mechanism have failed, creating a more serious operational situation.
	ErrorCodeRecoveryFailed ErrorCode = "STORAGE_RECOVERY_FAILED"

	// ErrorCodePermissionDenied indicates insufficient permissions to access a resource.
	// This is distinct from generic IO errors because it has a specific resolution path:
	// the user needs to adjust file/directory permissions or run with elevated privileges.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates that the storage device has run out of space.
	// This requires specific handling like cleanup operations or alerting administrators.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates that the filesystem is mounted read-only.
	// This requires administrative intervention to remount the filesystem with write permissions.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)

// Lock-specific error codes cover the directory-level advisory locking
// protocol described in spec.md §4.5.
const (
	// ErrorCodeDirectoryInUse indicates another live process already holds
	// the data directory's lockfile.
	ErrorCodeDirectoryInUse ErrorCode = "DIRECTORY_IN_USE"

	// ErrorCodeLockIO indicates a failure manipulating the lockfile itself
	// (create, read, write, or remove).
	ErrorCodeLockIO ErrorCode = "LOCK_IO_ERROR"
)

// Index-specific error codes cover the in-memory hash index described in
// spec.md §4.2 — lookups against it, and the snapshot persistence that
// restores it on startup.
const (
	// ErrorCodeIndexKeyNotFound indicates a lookup against a key the index
	// has no entry for.
	ErrorCodeIndexKeyNotFound ErrorCode = "INDEX_KEY_NOT_FOUND"

	// ErrorCodeIndexCorrupted indicates the persisted index snapshot could
	// not be parsed or decoded during startup recovery.
	ErrorCodeIndexCorrupted ErrorCode = "INDEX_CORRUPTED"
)

// Replication-specific error codes classify failures dispatching mutations
// to follower nodes. These never propagate to the client (spec.md §7); they
// exist so the replication pipeline and replica directory can log and count
// failures with the same structured taxonomy as the rest of the system.
const (
	// ErrorCodeReplicationTimeout indicates a per-attempt TCP timeout
	// against a follower was exceeded.
	ErrorCodeReplicationTimeout ErrorCode = "REPLICATION_TIMEOUT"

	// ErrorCodeReplicationDial indicates the TCP connection to a follower
	// could not be established.
	ErrorCodeReplicationDial ErrorCode = "REPLICATION_DIAL_FAILED"

	// ErrorCodeReplicationRejected indicates a follower replied with
	// something other than OK.
	ErrorCodeReplicationRejected ErrorCode = "REPLICATION_REJECTED"

	// ErrorCodeReplicationQueueFull indicates the bounded async queue was
	// full at enqueue or re-enqueue time, so the op was dropped.
	ErrorCodeReplicationQueueFull ErrorCode = "REPLICATION_QUEUE_FULL"
)
