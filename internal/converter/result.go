package converter

import (
	"fmt"
	"time"

	"github.com/ginjaninja78/revenue-xml/internal/types"
	"github.com/ginjaninja78/revenue-xml/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Output is one written file.
type Output struct {
	Day    time.Time
	Method types.Method
	Number string
	Path   string
}

// DayResult is the outcome of one requested day.
type DayResult struct {
	Day time.Time

	// Outputs lists the files written for the day. A day without revenue
	// succeeds with no outputs.
	Outputs []Output

	// Err is the reason the day failed, if it did.
	Err error
}

// Status classifies a run.
type Status string

const (
	// StatusNone means no file was written.
	StatusNone Status = "none"

	// StatusPartial means files were written but some days failed or the
	// run was cancelled.
	StatusPartial Status = "partial"

	// StatusComplete means every requested day succeeded and at least one
	// file was written.
	StatusComplete Status = "complete"
)

// RunResult represents the outcome of one GenerateDays call.
type RunResult struct {
	File   string
	Outlet string

	// Requested is the number of days asked for.
	Requested int

	// Days holds the processed days in processing order. It is shorter than
	// Requested when the run was cancelled or failed up front.
	Days []DayResult

	// Err is a file-level failure that prevented any day from running.
	Err error

	Cancelled bool
	Started   time.Time
	Finished  time.Time
}

// Written returns the number of files written.
func (r *RunResult) Written() int {
	n := 0
	for _, d := range r.Days {
		n += len(d.Outputs)
	}
	return n
}

// Failed returns the number of failed days.
func (r *RunResult) Failed() int {
	n := 0
	for _, d := range r.Days {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// Outputs returns every written file in order.
func (r *RunResult) Outputs() []Output {
	var out []Output
	for _, d := range r.Days {
		out = append(out, d.Outputs...)
	}
	return out
}

// Status classifies the run.
func (r *RunResult) Status() Status {
	switch {
	case r.Written() == 0:
		return StatusNone
	case r.Err != nil || r.Cancelled || r.Failed() > 0 || len(r.Days) < r.Requested:
		return StatusPartial
	}
	return StatusComplete
}

// Summary returns a one-line description of the run.
func (r *RunResult) Summary() string {
	if r.Err != nil {
		return fmt.Sprintf("nothing generated: %v", r.Err)
	}

	ok := len(r.Days) - r.Failed()
	line := fmt.Sprintf("%d file(s) written for %d of %d day(s)", r.Written(), ok, r.Requested)
	if failed := r.Failed(); failed > 0 {
		line += fmt.Sprintf(", %d day(s) failed", failed)
	}
	if r.Cancelled {
		line += ", cancelled"
	}

	switch r.Status() {
	case StatusNone:
		return "nothing generated: " + line
	case StatusPartial:
		return "partially generated: " + line
	}
	return "generated: " + line
}

// ProcessingSummary converts the result for the summary log.
func (r *RunResult) ProcessingSummary() utils.ProcessingSummary {
	s := utils.ProcessingSummary{
		StartTime:  r.Started,
		EndTime:    r.Finished,
		InputFile:  r.File,
		Outlet:     r.Outlet,
		Status:     string(r.Status()),
		TotalFiles: r.Written(),
	}
	for _, d := range r.Days {
		info := utils.DayInfo{Day: d.Day}
		for _, o := range d.Outputs {
			info.Files = append(info.Files, o.Path)
		}
		if d.Err != nil {
			info.ErrorMessage = d.Err.Error()
		}
		s.Days = append(s.Days, info)
	}
	return s
}
