package testutils

import "github.com/blkbis/idxqc/inconsistency"

// RecordingReporter keeps every reported object in memory.
type RecordingReporter struct {
	Objects []inconsistency.ReportableObject
	Closed  bool
}

func (r *RecordingReporter) Report(obj inconsistency.ReportableObject) {
	r.Objects = append(r.Objects, obj)
}

func (r *RecordingReporter) Close() {
	r.Closed = true
}

// CheckFailures returns the reported check failures in order.
func (r *RecordingReporter) CheckFailures() []inconsistency.CheckFailure {
	var ret []inconsistency.CheckFailure
	for _, obj := range r.Objects {
		if f, ok := obj.(inconsistency.CheckFailure); ok {
			ret = append(ret, f)
		}
	}
	return ret
}
