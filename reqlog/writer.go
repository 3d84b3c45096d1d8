// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package reqlog

import (
	"context"

	"github.com/hdiggity/harlanswitzer.com/metrics"
	"github.com/hdiggity/harlanswitzer.com/storage"

	"github.com/rs/zerolog/log"
)

// RequestStore is the write side of the raw request log.
type RequestStore interface {
	InsertRequest(rec *storage.LogRecord) error
}

// LogWriter decouples request handling from log-store inserts. Records
// go through a buffered queue consumed by a single goroutine; when the
// queue is full the record is dropped rather than delaying the response.
type LogWriter struct {
	db      RequestStore
	queue   chan *storage.LogRecord
	metrics *metrics.Metrics
}

func (w *LogWriter) Enqueue(rec *storage.LogRecord) {
	select {
	case w.queue <- rec:
	default:
		w.metrics.LogWritesDropped.Inc()
		log.Warn().
			Str("path", rec.Path).
			Msg("request log queue full, dropping record")
	}
}

// GoRun starts the consumer goroutine. It drains the queue after ctx is
// done so records accepted before shutdown still land.
func (w *LogWriter) GoRun(ctx context.Context) {
	go func() {
		for {
			select {
			case rec := <-w.queue:
				w.write(rec)
			case <-ctx.Done():
				for {
					select {
					case rec := <-w.queue:
						w.write(rec)
					default:
						log.Info().Msg("request log writer stopped")
						return
					}
				}
			}
		}
	}()
}

func (w *LogWriter) write(rec *storage.LogRecord) {
	if err := w.db.InsertRequest(rec); err != nil {
		log.Error().Err(err).Msg("failed to write request record")
		return
	}
	w.metrics.RequestsLogged.Inc()
}

func NewLogWriter(conf *Conf, db RequestStore, m *metrics.Metrics) *LogWriter {
	return &LogWriter{
		db:      db,
		queue:   make(chan *storage.LogRecord, conf.QueueSize),
		metrics: m,
	}
}
