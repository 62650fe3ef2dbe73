package extract

import (
	"time"

	"audioextract/internal/destination"
	"audioextract/internal/inputs"
	"audioextract/internal/services"
)

// Job is one batch submission.
type Job struct {
	Inputs []inputs.Ref
	// TrackIndex is the requested audio-relative track; out-of-range values
	// fall back to the first track of each input.
	TrackIndex int
}

// JobResult is the outcome of one input. Exactly one is produced per input
// that was started.
type JobResult struct {
	Index       int
	Total       int
	Input       inputs.Ref
	DisplayName string
	// Track is the resolved track index, or -1 when probing did not get that far.
	Track      int
	Codec      string
	OutputName string
	Artifact   destination.Ref
	State      JobState
	Reason     string
	Err        error
	Elapsed    time.Duration
}

// OK reports whether the input succeeded.
func (r JobResult) OK() bool {
	return r.Err == nil && r.State == JobSucceeded
}

// Kind returns the failure class, or "" on success.
func (r JobResult) Kind() string {
	return services.Kind(r.Err)
}

// Summary is the batch outcome returned by Run.
type Summary struct {
	RunID     string
	Total     int
	OK        int
	Failed    int
	Cancelled bool
	Results   []JobResult
	LogRef    destination.Ref
	Started   time.Time
	Finished  time.Time
}

func (s *Summary) add(r JobResult) {
	s.Results = append(s.Results, r)
	if r.OK() {
		s.OK++
	} else {
		s.Failed++
	}
}
