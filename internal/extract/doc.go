// Package extract orchestrates a batch run: for each input, strictly in
// order, it probes the container, selects the requested audio track, maps
// the codec to an output container, renders the output name, performs the
// stream copy, and commits the artifact to the destination.
//
// A failure in any step for one input becomes a failed JobResult plus an
// Error event; the batch always moves on to the next input. When the last
// input finishes (or the run is cancelled) the session log is flushed and a
// single Done event carries the final tallies.
//
// Events reach callers through an Observer. Start runs the batch on its own
// goroutine and returns a channel of events that is closed after Done.
package extract
