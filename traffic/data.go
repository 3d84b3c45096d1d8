// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package traffic

import (
	"github.com/hdiggity/harlanswitzer.com/common"
)

// Request is a single raw request observation as read from the request log
// store. The engine never mutates these and never writes them back.
type Request struct {
	TS      int64
	Visitor common.VisitorKey
	Path    string
	Method  string
	Status  int

	// BotScore is an edge-supplied heuristic (1 = bot-like, 99 = human-like);
	// nil means the edge did not score the request.
	BotScore *int

	// VerifiedBot marks an allow-listed automated client. Such rows are
	// excluded from scoring upstream; the flag is still checked defensively.
	VerifiedBot bool

	Referer string
	Country string
}

// Event is a client-side behavioral event sharing the visitor key with
// request observations.
type Event struct {
	TS      int64
	Visitor common.VisitorKey
	Type    string
}

const (
	EventTypeClick       = "click"
	EventTypeScroll      = "scroll"
	EventTypePerformance = "performance"
	EventTypeNavigation  = "navigation"
	EventTypePageview    = "pageview"
)

// Session is a maximal run of one visitor's requests with no internal gap
// exceeding SessionGapSecs. It is ephemeral - derived per classification
// run and never persisted.
type Session []Request

func (s Session) Start() int64 {
	return s[0].TS
}

func (s Session) End() int64 {
	return s[len(s)-1].TS
}

func (s Session) Duration() int64 {
	return s.End() - s.Start()
}

func (s Session) UserAgent() string {
	return s[0].Visitor.UserAgent
}

func (s Session) PageviewCount() int {
	var ans int
	for _, req := range s {
		if isPageview(req.Method, req.Path) {
			ans++
		}
	}
	return ans
}

// Country returns the most frequent non-empty country across the session's
// requests. Ties resolve to the value seen first - the resolution is
// implementation-accidental but kept stable so repeated runs over a frozen
// window produce identical reports.
func (s Session) Country() string {
	cnt := newCounter()
	for _, req := range s {
		if req.Country != "" {
			cnt.Inc(req.Country, 1)
		}
	}
	var best string
	var bestN int
	for _, kv := range cnt.Items() {
		if kv.Count > bestN {
			best = kv.Key
			bestN = kv.Count
		}
	}
	return best
}

// visitorEvents carries per-visitor signals precomputed once from the whole
// event window (not per session).
type visitorEvents struct {

	// interactiveTS is the earliest click/scroll event of the visitor
	interactiveTS int64

	hasInteractive bool

	// hasPerf is true if the visitor produced any performance/navigation event
	hasPerf bool
}

// collectEventSignals reduces the event window into per-visitor signals.
func collectEventSignals(events []Event) map[common.VisitorKey]visitorEvents {
	ans := make(map[common.VisitorKey]visitorEvents)
	for _, ev := range events {
		entry := ans[ev.Visitor]
		switch ev.Type {
		case EventTypeClick, EventTypeScroll:
			if !entry.hasInteractive || ev.TS < entry.interactiveTS {
				entry.interactiveTS = ev.TS
				entry.hasInteractive = true
			}
		case EventTypePerformance, EventTypeNavigation:
			entry.hasPerf = true
		}
		ans[ev.Visitor] = entry
	}
	return ans
}
