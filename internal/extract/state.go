package extract

// JobState is the lifecycle state of one input.
type JobState string

const (
	JobPending     JobState = "pending"
	JobProbing     JobState = "probing"
	JobSelecting   JobState = "selecting"
	JobNaming      JobState = "naming"
	JobTranscoding JobState = "transcoding"
	JobResolving   JobState = "resolving"
	JobSucceeded   JobState = "succeeded"
	JobFailed      JobState = "failed"
)

// BatchState is the lifecycle state of a run.
type BatchState string

const (
	BatchIdle       BatchState = "idle"
	BatchRunning    BatchState = "running"
	BatchFinalizing BatchState = "finalizing"
	BatchDone       BatchState = "done"
)

// validTransition enforces the per-input state machine edges. Every active
// state may fail; only Resolving may succeed.
func validTransition(from, to JobState) bool {
	if to == JobFailed {
		switch from {
		case JobPending, JobProbing, JobSelecting, JobNaming, JobTranscoding, JobResolving:
			return true
		}
		return false
	}
	switch from {
	case JobPending:
		return to == JobProbing
	case JobProbing:
		return to == JobSelecting
	case JobSelecting:
		return to == JobNaming
	case JobNaming:
		return to == JobTranscoding
	case JobTranscoding:
		return to == JobResolving
	case JobResolving:
		return to == JobSucceeded
	default:
		return false
	}
}

func validBatchTransition(from, to BatchState) bool {
	switch from {
	case BatchIdle:
		return to == BatchRunning
	case BatchRunning:
		return to == BatchFinalizing
	case BatchFinalizing:
		return to == BatchDone
	default:
		return false
	}
}

// Stage returns the step name used in logs and error context.
func (s JobState) Stage() string {
	return string(s)
}
