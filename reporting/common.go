// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package reporting

import (
	"fmt"
	"time"

	"github.com/czcorpus/hltscl"
)

const (
	// ClassificationOpsTable stores one row per classification run
	// (window size, rows scanned, per-class totals, processing time).
	ClassificationOpsTable = "traffic_classification_ops"

	// IngestOpsTable stores one row per accepted collect batch.
	IngestOpsTable = "collect_ingest_ops"

	DfltPostgresPort = 5432
)

// Timescalable represents any type which is able to export its data in
// a format required by the TimescaleDB writer.
type Timescalable interface {

	// ToTimescaleDB defines a method providing data
	// to be written to a database.
	ToTimescaleDB(tableWriter *hltscl.TableWriter) *hltscl.Entry

	// GetTime provides a date and time when the record was created.
	GetTime() time.Time

	// GetTableName provides a destination table name
	GetTableName() string

	// MarshalJSON provides a way how to convert the value into JSON.
	// This is mostly used for logging and debugging.
	MarshalJSON() ([]byte, error)
}

type ReportingWriter interface {
	LogErrors()
	Write(item Timescalable)
	AddTableWriter(tableName string)
}

// Conf specifies the TimescaleDB connection used for operational
// reporting. An unconfigured (empty host) section makes the service fall
// back to the NullWriter.
type Conf struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (conf *Conf) IsConfigured() bool {
	return conf.Host != ""
}

func (conf *Conf) Validate(context string) error {
	if !conf.IsConfigured() {
		return nil
	}
	if conf.User == "" {
		return fmt.Errorf("%s.user is empty/missing", context)
	}
	if conf.Name == "" {
		return fmt.Errorf("%s.name is empty/missing", context)
	}
	if conf.Port == 0 {
		conf.Port = DfltPostgresPort
	}
	return nil
}

// DSN produces a pgx connection string for the pool.
func (conf *Conf) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		conf.User, conf.Password, conf.Host, conf.Port, conf.Name,
	)
}
