package shared

// RecordStatus defines the lifecycle states of transfer and closure records
type RecordStatus string

const (
	RecordStatusPending    RecordStatus = "PENDING"
	RecordStatusProcessing RecordStatus = "PROCESSING"
	RecordStatusSuccess    RecordStatus = "SUCCESS"
	RecordStatusFailed     RecordStatus = "FAILED"
)

// OrderOrigin identifies which system an order integration originated from
type OrderOrigin string

const (
	OrderOriginInternal OrderOrigin = "INTERNAL" // Created through this system's full flow
	OrderOriginExternal OrderOrigin = "EXTERNAL" // Discovered in the source system by the robot
)

// CreationMethod identifies the path that created a record
type CreationMethod string

const (
	CreationMethodManual    CreationMethod = "MANUAL"
	CreationMethodAutomated CreationMethod = "AUTOMATED"
	CreationMethodBatch     CreationMethod = "BATCH"
)

// SyncMethod tags which engine path produced an attachment sync log entry
type SyncMethod string

const (
	SyncMethodAutomated SyncMethod = "AUTOMATED"  // Full-flow orchestrator
	SyncMethodBatchScan SyncMethod = "BATCH_SCAN" // Reconciliation robot
)

// SyncOutcome defines the outcome of one attachment copy attempt
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "SUCCESS"
	SyncOutcomeFailed  SyncOutcome = "FAILED"
)

// DefaultMaxAttempts is the retry budget applied to new transfer and closure
// records unless overridden.
const DefaultMaxAttempts = 3
