// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package collect

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hdiggity/harlanswitzer.com/metrics"
	"github.com/hdiggity/harlanswitzer.com/reporting"
	"github.com/hdiggity/harlanswitzer.com/reqlog"
	"github.com/hdiggity/harlanswitzer.com/storage"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const maxPayloadBytes = 64 * 1024

// EventStore is the write side of the behavioral event log.
type EventStore interface {
	InsertEvents(recs []storage.EventRecord) error
}

// incomingEvent is one item of the client beacon payload. Everything is
// optional; missing timestamps fall back to the server clock.
type incomingEvent struct {
	TS   int64           `json:"ts"`
	VID  string          `json:"vid"`
	SID  string          `json:"sid"`
	Type string          `json:"type"`
	Path string          `json:"path"`
	Data json.RawMessage `json:"data"`
}

// Actions implements the behavioral event ingestion endpoint.
type Actions struct {
	conf       *Conf
	reqlogConf *reqlog.Conf
	db         EventStore
	reporting  reporting.ReportingWriter
	metrics    *metrics.Metrics

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

func (a *Actions) allowClient(ipHash string) bool {
	if a.conf.ReqPerSec <= 0 {
		return true
	}
	a.limitersMu.Lock()
	defer a.limitersMu.Unlock()
	limiter, ok := a.limiters[ipHash]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(a.conf.ReqPerSec), a.conf.ReqBurst)
		a.limiters[ipHash] = limiter
	}
	return limiter.Allow()
}

// HandleCollect accepts a JSON array of 1 to 50 behavioral events and
// writes it to the event store as a single batch. Operator self-exclude
// is respected silently; only a malformed payload produces an error
// response so misbehaving clients learn nothing about the pipeline.
func (a *Actions) HandleCollect(ctx *gin.Context) {
	if reqlog.SelfExcluded(ctx.Request) {
		uniresp.WriteJSONResponse(ctx.Writer, map[string]any{"ok": true})
		return
	}
	sig := reqlog.ExtractSignals(a.reqlogConf, ctx.Request)
	if !a.allowClient(sig.IPHash) {
		a.metrics.CollectsRejected.WithLabelValues("rate_limit").Inc()
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionError("too many requests"),
			http.StatusTooManyRequests,
		)
		return
	}

	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxPayloadBytes+1))
	if err != nil || len(body) > maxPayloadBytes {
		a.metrics.CollectsRejected.WithLabelValues("payload").Inc()
		uniresp.WriteJSONErrorResponse(
			ctx.Writer, uniresp.NewActionError("bad request"), http.StatusBadRequest)
		return
	}
	var events []incomingEvent
	if err := sonic.Unmarshal(body, &events); err != nil {
		a.metrics.CollectsRejected.WithLabelValues("payload").Inc()
		uniresp.WriteJSONErrorResponse(
			ctx.Writer, uniresp.NewActionError("bad request"), http.StatusBadRequest)
		return
	}
	if len(events) == 0 || len(events) > MaxBatchSize {
		a.metrics.CollectsRejected.WithLabelValues("batch_size").Inc()
		uniresp.WriteJSONErrorResponse(
			ctx.Writer, uniresp.NewActionError("bad request"), http.StatusBadRequest)
		return
	}

	t0 := time.Now()
	now := t0.Unix()
	recs := make([]storage.EventRecord, len(events))
	for i, ev := range events {
		ts := ev.TS
		if ts == 0 {
			ts = now
		}
		recs[i] = storage.EventRecord{
			TS:          ts,
			VID:         ev.VID,
			SID:         ev.SID,
			Type:        ev.Type,
			Path:        ev.Path,
			Data:        string(ev.Data),
			UserAgent:   sig.UserAgent,
			Referer:     sig.Referer,
			BotScore:    sig.BotScore,
			VerifiedBot: sig.VerifiedBot,
			IPHash:      sig.IPHash,
		}
	}
	if err := a.db.InsertEvents(recs); err != nil {
		log.Error().Err(err).Msg("failed to store collect batch")
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionErrorFrom(err),
			http.StatusInternalServerError,
		)
		return
	}
	a.metrics.EventsCollected.Add(float64(len(recs)))
	a.reporting.Write(&IngestReport{
		DateTime:  t0,
		NumEvents: len(recs),
		ProcTime:  time.Since(t0).Seconds(),
	})
	uniresp.WriteJSONResponse(ctx.Writer, map[string]any{"ok": true, "stored": len(recs)})
}

func NewActions(
	conf *Conf,
	reqlogConf *reqlog.Conf,
	db EventStore,
	reportingWriter reporting.ReportingWriter,
	m *metrics.Metrics,
) *Actions {
	return &Actions{
		conf:       conf,
		reqlogConf: reqlogConf,
		db:         db,
		reporting:  reportingWriter,
		metrics:    m,
		limiters:   make(map[string]*rate.Limiter),
	}
}
