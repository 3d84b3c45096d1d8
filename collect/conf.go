// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package collect

import "fmt"

const (
	// MaxBatchSize is the largest number of events accepted in a single
	// collect payload.
	MaxBatchSize = 50

	dfltReqPerSec = 2
	dfltReqBurst  = 10
)

// Conf configures the behavioral event ingestion endpoint.
type Conf struct {

	// ReqPerSec limits accepted collect batches per client IP.
	ReqPerSec float64 `json:"reqPerSec"`

	// ReqBurst is the rate limiter burst size per client IP.
	ReqBurst int `json:"reqBurst"`
}

func (conf *Conf) Validate(context string) error {
	if conf.ReqPerSec < 0 {
		return fmt.Errorf("%s.reqPerSec must not be negative", context)
	}
	if conf.ReqBurst < 0 {
		return fmt.Errorf("%s.reqBurst must not be negative", context)
	}
	return nil
}

func (conf *Conf) ApplyDefaults() {
	if conf.ReqPerSec == 0 {
		conf.ReqPerSec = dfltReqPerSec
	}
	if conf.ReqBurst == 0 {
		conf.ReqBurst = dfltReqBurst
	}
}
