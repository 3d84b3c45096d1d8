// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package traffic

// Tuning constants of the classification engine. These are deliberately
// compile-time constants and not configuration - each threshold was picked
// by inspecting real traffic and the scoring table in scorer.go is written
// against these exact values. The only runtime-tunable part is the token
// denylist (see tokens.go).
const (
	// SessionGapSecs is the inactivity gap between two requests of the same
	// visitor which starts a new session. The SQL fast path for verified
	// bots (storage package) sessionizes with the identical value.
	SessionGapSecs = 1800

	// RequestCap bounds how many raw request rows a single classification
	// run may pull from the store. It is the only backpressure mechanism
	// of the engine; hitting it is reported via the `truncated` flag.
	RequestCap = 10000

	humanThreshold = 2  // score >= this => human
	autoThreshold  = -2 // score <= this => automated

	burstWindowSecs = 10 // burst detection: rolling time window
	burstMinReqs    = 20 // burst detection: requests within window => flag

	crawlWindowSecs = 120 // crawl detection: rolling time window
	crawlMinPaths   = 15  // crawl detection: distinct paths within window => flag

	engageDurationSecs = 15 // engaged session: minimum duration
	engagePvMin        = 2  // engaged session: minimum pageviews

	interactiveSlackSecs = 60 // slack when associating client events to a session

	maxSessionRows  = 300 // cap on the recent-sessions sample in a report
	maxUALen        = 80  // user agent truncation in session rows
	topNDefault     = 20
	topNAgents      = 10
)

// Conf configures the runtime-loadable parts of the engine.
type Conf struct {

	// TokenDefsPath is an optional path to a JSON file overriding the
	// built-in scanner-path/bot-UA/browser-UA token lists. When set, the
	// file is also watched for changes and reloaded on the fly.
	TokenDefsPath string `json:"tokenDefsPath"`
}

func (conf *Conf) Validate(context string) error {
	// an empty TokenDefsPath just means "use built-in token lists"
	return nil
}
