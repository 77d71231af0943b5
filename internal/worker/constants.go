package worker

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

const (
	LogMsgWorkerJobFailed   = "Worker job failed"
	LogMsgWorkerJobPanicked = "Worker job panicked"
	LogMsgWorkerQueueFull   = "Worker queue full, job dropped"
)

// ============================================================================
// Log Messages - Sweep Job
// ============================================================================

const (
	LogMsgSweepStarting  = "Finalize sweep starting"
	LogMsgSweepCompleted = "Finalize sweep completed"
	LogMsgSweepSkipped   = "Finalize sweep already running, skipping tick"
)

// JobNameSweep identifies the sweep job in logs
const JobNameSweep = "finalize_sweep"
