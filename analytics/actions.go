// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hdiggity/harlanswitzer.com/metrics"
	"github.com/hdiggity/harlanswitzer.com/reporting"
	"github.com/hdiggity/harlanswitzer.com/session"
	"github.com/hdiggity/harlanswitzer.com/storage"
	"github.com/hdiggity/harlanswitzer.com/traffic"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	dfltWindowHours = 24
	maxWindowHours  = 720
	recentReqsLimit = 200
)

// WindowStore provides the log-store reads one classification run needs.
type WindowStore interface {
	LoadWindowRequests(fromTS int64) ([]traffic.Request, bool, error)
	LoadVerifiedBotAggregates(fromTS int64) (traffic.BotAggregates, error)
	LoadWindowEvents(fromTS int64) ([]traffic.Event, error)
	LoadRecentRequests(fromTS int64, limit int) ([]storage.RecentRequest, error)
}

// trafficResponse is the admin API payload - the classification report
// plus the raw request sample and request metadata.
type trafficResponse struct {
	Username    string `json:"username"`
	WindowHours int    `json:"window_hours"`
	*traffic.Report
	RecentRequests []storage.RecentRequest `json:"recent_requests"`
}

// Actions implements the admin traffic analytics endpoint.
type Actions struct {
	db        WindowStore
	analyzer  *traffic.Analyzer
	reporting reporting.ReportingWriter
	metrics   *metrics.Metrics
}

// parseHours reads the requested window size permissively - anything
// unparseable falls back to the default, out-of-range values clamp.
func parseHours(ctx *gin.Context) int {
	hours, err := strconv.Atoi(ctx.DefaultQuery("hours", strconv.Itoa(dfltWindowHours)))
	if err != nil {
		return dfltWindowHours
	}
	if hours < 1 {
		return 1
	}
	if hours > maxWindowHours {
		return maxWindowHours
	}
	return hours
}

// HandleTraffic fetches the requested window from the log store, runs
// the classifier and responds with the full report. Any store failure is
// a hard error - there is no partial report mode.
func (a *Actions) HandleTraffic(ctx *gin.Context) {
	hours := parseHours(ctx)
	fromTS := time.Now().Unix() - int64(hours)*3600
	t0 := time.Now()

	var (
		reqs      []traffic.Request
		truncated bool
		botAgg    traffic.BotAggregates
		events    []traffic.Event
		recent    []storage.RecentRequest
	)
	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		reqs, truncated, err = a.db.LoadWindowRequests(fromTS)
		return err
	})
	eg.Go(func() error {
		var err error
		botAgg, err = a.db.LoadVerifiedBotAggregates(fromTS)
		return err
	})
	eg.Go(func() error {
		var err error
		events, err = a.db.LoadWindowEvents(fromTS)
		return err
	})
	eg.Go(func() error {
		var err error
		recent, err = a.db.LoadRecentRequests(fromTS, recentReqsLimit)
		return err
	})
	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("failed to fetch traffic window")
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionErrorFrom(err),
			http.StatusInternalServerError,
		)
		return
	}

	report := a.analyzer.Analyze(reqs, events, botAgg, truncated)
	procTime := time.Since(t0).Seconds()
	a.metrics.ClassificationRuns.Inc()
	a.metrics.ClassificationTime.Observe(procTime)
	a.reporting.Write(&TrafficReport{
		DateTime:          t0,
		WindowHours:       hours,
		NumRequests:       len(reqs),
		Truncated:         truncated,
		HumanVisitors:     report.Summary.Human.Visitors,
		AutomatedVisitors: report.Summary.Automated.Visitors,
		UnknownVisitors:   report.Summary.Unknown.Visitors,
		ProcTime:          procTime,
	})

	uniresp.WriteJSONResponse(ctx.Writer, &trafficResponse{
		Username:       session.UserFromCtx(ctx).Username,
		WindowHours:    hours,
		Report:         report,
		RecentRequests: recent,
	})
}

func NewActions(
	db WindowStore,
	analyzer *traffic.Analyzer,
	reportingWriter reporting.ReportingWriter,
	m *metrics.Metrics,
) *Actions {
	return &Actions{
		db:        db,
		analyzer:  analyzer,
		reporting: reportingWriter,
		metrics:   m,
	}
}
