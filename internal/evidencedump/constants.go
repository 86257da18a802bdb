package evidencedump

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Stream reading constants. Evidence records with many URLs run to a few KiB.
const (
	initialLineBuffer = 64 * 1024
	maxLineBytes      = 4 * 1024 * 1024
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0640
	logFilePermission   = 0600
)

const ndjsonContentType = "application/x-ndjson"
