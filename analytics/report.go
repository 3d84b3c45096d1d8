// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package analytics

import (
	"encoding/json"
	"time"

	"github.com/hdiggity/harlanswitzer.com/reporting"

	"github.com/czcorpus/hltscl"
)

// TrafficReport is an operational record of one classification run.
type TrafficReport struct {
	DateTime          time.Time
	WindowHours       int
	NumRequests       int
	Truncated         bool
	HumanVisitors     int
	AutomatedVisitors int
	UnknownVisitors   int
	ProcTime          float64
}

func (report *TrafficReport) ToTimescaleDB(tableWriter *hltscl.TableWriter) *hltscl.Entry {
	truncated := 0
	if report.Truncated {
		truncated = 1
	}
	return tableWriter.NewEntry(report.DateTime).
		Int("window_hours", report.WindowHours).
		Int("num_requests", report.NumRequests).
		Int("truncated", truncated).
		Int("human_visitors", report.HumanVisitors).
		Int("automated_visitors", report.AutomatedVisitors).
		Int("unknown_visitors", report.UnknownVisitors).
		Float("proc_time", report.ProcTime)
}

func (report *TrafficReport) GetTime() time.Time {
	return report.DateTime
}

func (report *TrafficReport) GetTableName() string {
	return reporting.ClassificationOpsTable
}

func (report *TrafficReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		DateTime          time.Time `json:"dateTime"`
		WindowHours       int       `json:"windowHours"`
		NumRequests       int       `json:"numRequests"`
		Truncated         bool      `json:"truncated"`
		HumanVisitors     int       `json:"humanVisitors"`
		AutomatedVisitors int       `json:"automatedVisitors"`
		UnknownVisitors   int       `json:"unknownVisitors"`
		ProcTime          float64   `json:"procTime"`
	}{
		DateTime:          report.DateTime,
		WindowHours:       report.WindowHours,
		NumRequests:       report.NumRequests,
		Truncated:         report.Truncated,
		HumanVisitors:     report.HumanVisitors,
		AutomatedVisitors: report.AutomatedVisitors,
		UnknownVisitors:   report.UnknownVisitors,
		ProcTime:          report.ProcTime,
	})
}
