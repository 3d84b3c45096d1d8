// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package collect

import (
	"encoding/json"
	"time"

	"github.com/hdiggity/harlanswitzer.com/reporting"

	"github.com/czcorpus/hltscl"
)

// IngestReport is an operational record of one accepted collect batch.
type IngestReport struct {
	DateTime  time.Time
	NumEvents int
	ProcTime  float64
}

func (report *IngestReport) ToTimescaleDB(tableWriter *hltscl.TableWriter) *hltscl.Entry {
	return tableWriter.NewEntry(report.DateTime).
		Int("num_events", report.NumEvents).
		Float("proc_time", report.ProcTime)
}

func (report *IngestReport) GetTime() time.Time {
	return report.DateTime
}

func (report *IngestReport) GetTableName() string {
	return reporting.IngestOpsTable
}

func (report *IngestReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		DateTime  time.Time `json:"dateTime"`
		NumEvents int       `json:"numEvents"`
		ProcTime  float64   `json:"procTime"`
	}{
		DateTime:  report.DateTime,
		NumEvents: report.NumEvents,
		ProcTime:  report.ProcTime,
	})
}
