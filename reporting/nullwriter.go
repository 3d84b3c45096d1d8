// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package reporting

import "github.com/rs/zerolog/log"

// NullWriter is used when no reporting database is configured; reports are
// only traced to the log.
type NullWriter struct {
}

func (sw *NullWriter) LogErrors() {
}

func (sw *NullWriter) Write(item Timescalable) {
	log.Debug().
		Bool("fallbackReporting", true).
		Any("record", item).
		Msg("NullWriter.Write()")
}

func (sw *NullWriter) AddTableWriter(tableName string) {
	log.Info().
		Bool("fallbackReporting", true).
		Msgf("NullWriter.AddTableWriter(%s)", tableName)
}
