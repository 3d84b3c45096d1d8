// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package reporting

import (
	"context"
	"time"

	"github.com/czcorpus/hltscl"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type table struct {
	writer    *hltscl.TableWriter
	opsDataCh chan<- hltscl.Entry
	errCh     <-chan hltscl.WriteError
}

// TimescaleDBWriter stores operational reports of the analytics service
// (classification runs, collect batches) into TimescaleDB hypertables.
// Writes go through hltscl's buffered channels so a slow or unavailable
// reporting database never blocks request handling.
type TimescaleDBWriter struct {
	ctx    context.Context
	tz     *time.Location
	conn   *pgxpool.Pool
	tables map[string]*table
}

func (sw *TimescaleDBWriter) LogErrors() {
	for name, tbl := range sw.tables {
		go func(name string, tbl *table) {
			for {
				select {
				case <-sw.ctx.Done():
					log.Info().Msgf("about to close %s reporting writer", name)
					return
				case err, ok := <-tbl.errCh:
					if ok {
						log.Error().
							Err(err.Err).
							Str("entry", err.Entry.String()).
							Msg("error writing data to TimescaleDB")
					}
				}
			}
		}(name, tbl)
	}
}

func (sw *TimescaleDBWriter) Write(item Timescalable) {
	tbl, ok := sw.tables[item.GetTableName()]
	if ok {
		tbl.opsDataCh <- *item.ToTimescaleDB(tbl.writer)

	} else {
		log.Warn().Str("tableName", item.GetTableName()).Msg("undefined table name in reporting writer")
	}
}

func (sw *TimescaleDBWriter) AddTableWriter(tableName string) {
	twriter := hltscl.NewTableWriter(sw.conn, tableName, "time", sw.tz)
	opsDataCh, errCh := twriter.Activate(
		sw.ctx, hltscl.WithTimeout(10*time.Second))
	sw.tables[tableName] = &table{
		writer:    twriter,
		opsDataCh: opsDataCh,
		errCh:     errCh,
	}
}

func NewReportingWriter(connection *pgxpool.Pool, tz *time.Location, ctx context.Context) *TimescaleDBWriter {
	return &TimescaleDBWriter{
		ctx:    ctx,
		tz:     tz,
		conn:   connection,
		tables: make(map[string]*table),
	}
}
