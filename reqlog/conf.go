// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package reqlog

import "fmt"

const (
	dfltQueueSize = 1000

	dfltBotScoreHeader    = "X-Bot-Score"
	dfltVerifiedBotHeader = "X-Verified-Bot"
	dfltCountryHeader     = "X-Client-Country"
	dfltASNHeader         = "X-Client-ASN"
	dfltColoHeader        = "X-Served-By"
)

// Conf configures the request logging middleware. The *Header entries
// name trusted headers injected by the edge/reverse proxy in front of
// the service; the middleware never derives bot signals itself.
type Conf struct {

	// IPHashSalt is prepended to the client IP before hashing. With an
	// empty salt the hashes are still stable but trivially testable
	// against a rainbow table, so a non-empty value is required.
	IPHashSalt string `json:"ipHashSalt"`

	// SkipPaths lists path prefixes excluded from logging (the ingest
	// and auth endpoints log themselves or must stay out entirely).
	SkipPaths []string `json:"skipPaths"`

	BotScoreHeader    string `json:"botScoreHeader"`
	VerifiedBotHeader string `json:"verifiedBotHeader"`
	CountryHeader     string `json:"countryHeader"`
	ASNHeader         string `json:"asnHeader"`
	ColoHeader        string `json:"coloHeader"`

	// QueueSize is the capacity of the asynchronous writer queue.
	// Records arriving on a full queue are dropped with a warning.
	QueueSize int `json:"queueSize"`
}

func (conf *Conf) Validate(context string) error {
	if conf.IPHashSalt == "" {
		return fmt.Errorf("%s.ipHashSalt is empty/missing", context)
	}
	if conf.QueueSize < 0 {
		return fmt.Errorf("%s.queueSize must not be negative", context)
	}
	return nil
}

func (conf *Conf) ApplyDefaults() {
	if conf.QueueSize == 0 {
		conf.QueueSize = dfltQueueSize
	}
	if len(conf.SkipPaths) == 0 {
		conf.SkipPaths = []string{"/collect", "/auth/", "/admin/api"}
	}
	if conf.BotScoreHeader == "" {
		conf.BotScoreHeader = dfltBotScoreHeader
	}
	if conf.VerifiedBotHeader == "" {
		conf.VerifiedBotHeader = dfltVerifiedBotHeader
	}
	if conf.CountryHeader == "" {
		conf.CountryHeader = dfltCountryHeader
	}
	if conf.ASNHeader == "" {
		conf.ASNHeader = dfltASNHeader
	}
	if conf.ColoHeader == "" {
		conf.ColoHeader = dfltColoHeader
	}
}
