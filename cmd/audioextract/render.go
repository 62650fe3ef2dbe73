package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"audioextract/internal/extract"
	"audioextract/internal/logging"
)

const clearLine = "\r\033[K"

// progressRenderer prints extraction events. On a terminal progress rewrites
// one live line; otherwise progress is printed in 10% steps.
type progressRenderer struct {
	out      io.Writer
	live     bool
	lineOpen bool
	sampler  *logging.ProgressSampler

	results []extract.JobResult
	done    *extract.Done
}

func newProgressRenderer(out io.Writer, live bool) *progressRenderer {
	return &progressRenderer{out: out, live: live, sampler: logging.NewProgressSampler(10)}
}

func (r *progressRenderer) closeLine() {
	if r.lineOpen {
		fmt.Fprint(r.out, clearLine)
		r.lineOpen = false
	}
}

// Handle renders one event and keeps the results for the final table.
func (r *progressRenderer) Handle(e extract.Event) {
	switch ev := e.(type) {
	case extract.Progress:
		if r.live {
			fmt.Fprintf(r.out, "%s[%3d%%] %s", clearLine, ev.Percent, ev.Message)
			r.lineOpen = true
			return
		}
		if r.sampler.ShouldLog(float64(ev.Percent), ev.Message) {
			fmt.Fprintf(r.out, "[%3d%%] %s\n", ev.Percent, ev.Message)
		}
	case extract.Log:
		r.closeLine()
		fmt.Fprintf(r.out, "  %s\n", ev.Line)
	case extract.Error:
		r.closeLine()
		fmt.Fprintf(r.out, "error: %s\n", ev.Message)
	case extract.Result:
		r.results = append(r.results, ev.JobResult)
		if ev.JobResult.OK() {
			r.closeLine()
			fmt.Fprintf(r.out, "ok %d/%d %s -> %s\n", ev.JobResult.Index+1, ev.JobResult.Total,
				ev.JobResult.DisplayName, ev.JobResult.Artifact.Path())
		}
	case extract.Done:
		r.closeLine()
		d := ev
		r.done = &d
		fmt.Fprintln(r.out, ev.Message)
		if path := ev.LogRef.Path(); path != "" {
			fmt.Fprintf(r.out, "Session log: %s\n", path)
		}
	}
}

func summaryTable(results []extract.JobResult) string {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := "ok"
		output := filepath.Base(res.Artifact.Path())
		if !res.OK() {
			status = res.Kind()
			output = res.Reason
		}
		track := "-"
		if res.Track >= 0 {
			track = "#" + strconv.Itoa(res.Track)
		}
		rows = append(rows, []string{
			strconv.Itoa(res.Index + 1),
			res.DisplayName,
			track,
			res.Codec,
			status,
			output,
			res.Elapsed.Round(100 * time.Millisecond).String(),
		})
	}
	return renderTable(
		[]string{"#", "Input", "Track", "Codec", "Status", "Output / Reason", "Time"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}
