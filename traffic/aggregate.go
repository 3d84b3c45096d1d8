// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package traffic

import (
	"sort"

	"github.com/hdiggity/harlanswitzer.com/common"
)

// counter counts string keys while remembering first-seen order, which is
// what makes top-N lists and mode lookups deterministic over a frozen
// input (and keeps the documented ties-by-first-encounter behavior).
type counter struct {
	counts map[string]int
	keys   []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) Inc(key string, delta int) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key] += delta
}

type KeyCount struct {
	Key   string
	Count int
}

// Items returns all entries in first-seen order.
func (c *counter) Items() []KeyCount {
	ans := make([]KeyCount, len(c.keys))
	for i, k := range c.keys {
		ans[i] = KeyCount{Key: k, Count: c.counts[k]}
	}
	return ans
}

// TopN returns up to n entries ordered by count descending; equal counts
// keep their first-seen order (stable sort by count only).
func (c *counter) TopN(n int) []KeyCount {
	ans := c.Items()
	sort.SliceStable(ans, func(a, b int) bool {
		return ans[a].Count > ans[b].Count
	})
	if len(ans) > n {
		ans = ans[:n]
	}
	return ans
}

// ---------------------

// ClassTotals are the per-classification rollup counts of a report.
type ClassTotals struct {
	Visitors  int `json:"visitors"`
	Sessions  int `json:"sessions"`
	Pageviews int `json:"pageviews"`
	Requests  int `json:"requests"`
}

func (ct *ClassTotals) merge(other ClassTotals) {
	ct.Visitors += other.Visitors
	ct.Sessions += other.Sessions
	ct.Pageviews += other.Pageviews
	ct.Requests += other.Requests
}

type Summary struct {
	Human     ClassTotals `json:"human"`
	Automated ClassTotals `json:"automated"`
	Unknown   ClassTotals `json:"unknown"`
}

func (s *Summary) totals(cls common.Classification) *ClassTotals {
	switch cls {
	case common.ClassificationHuman:
		return &s.Human
	case common.ClassificationAutomated:
		return &s.Automated
	default:
		return &s.Unknown
	}
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

type PathCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

type AgentCount struct {
	Agent string `json:"agent"`
	Count int    `json:"count"`
}

type RefererCount struct {
	Referer string `json:"referer"`
	Count   int    `json:"count"`
}

// SessionRow is a single classified session in the operator-facing sample.
type SessionRow struct {
	TS             int64                 `json:"ts"`
	Classification common.Classification `json:"cls"`
	Score          int                   `json:"score"`
	Country        string                `json:"country"`
	Requests       int                   `json:"requests"`
	Pageviews      int                   `json:"pageviews"`
	Duration       int64                 `json:"duration"`
	FirstPath      string                `json:"first_path"`
	UserAgent      string                `json:"ua"`
}

// BotAggregates carries the verified-bot fast path pre-aggregates computed
// directly by the store (SQL window functions); they are merged additively
// into the `automated` bucket without ever touching the scorer.
type BotAggregates struct {
	Totals    ClassTotals
	Countries []CountryCount
	Agents    []AgentCount
}

// Report is the complete outcome of one classification run.
type Report struct {
	Truncated             bool           `json:"truncated"`
	Summary               Summary        `json:"summary"`
	TopCountriesHuman     []CountryCount `json:"top_countries_human"`
	TopCountriesAutomated []CountryCount `json:"top_countries_automated"`
	TopSuspiciousPaths    []PathCount    `json:"top_suspicious_paths"`
	TopAutomatedAgents    []AgentCount   `json:"top_automated_agents"`
	TopReferrersHuman     []RefererCount `json:"top_referrers_human"`
	RecentSessions        []SessionRow   `json:"recent_sessions"`
}

// ---------------------

// Analyzer turns a window of raw request observations and behavioral events
// into a classification report. It holds no per-run state - every Analyze
// call recomputes from scratch and concurrent calls are safe.
type Analyzer struct {
	tokens *TokenSets
}

// Analyze runs grouping, per-session scoring and aggregation over the
// fetched window. The reqs slice must not contain verified-bot rows (those
// arrive pre-aggregated in botAgg); a row that slips through is penalized
// by the scorer but the contract is the store filters them out.
func (a *Analyzer) Analyze(reqs []Request, events []Event, botAgg BotAggregates, truncated bool) *Report {
	eventSignals := collectEventSignals(events)

	ans := &Report{Truncated: truncated}
	countriesHuman := newCounter()
	countriesAuto := newCounter()
	suspiciousPaths := newCounter()
	autoAgents := newCounter()
	humanReferrers := newCounter()

	for _, visitor := range groupByVisitor(reqs) {
		ev := eventSignals[visitor.key]
		ua := visitor.key.UserAgent

		visitorClass := common.ClassificationAutomated
		for _, sess := range sessionize(visitor.requests) {
			score := a.scoreSession(sess, ev)
			cls := classifyScore(score)
			visitorClass = visitorClass.Best(cls)

			pvs := sess.PageviewCount()
			country := sess.Country()

			totals := ans.Summary.totals(cls)
			totals.Sessions++
			totals.Pageviews += pvs
			totals.Requests += len(sess)

			switch cls {
			case common.ClassificationHuman:
				if country != "" {
					countriesHuman.Inc(country, 1)
				}
				for _, req := range sess {
					if req.Referer != "" {
						humanReferrers.Inc(req.Referer, 1)
					}
				}
			case common.ClassificationAutomated:
				if country != "" {
					countriesAuto.Inc(country, 1)
				}
				for _, req := range sess {
					if a.isScannerPath(req.Path) {
						suspiciousPaths.Inc(req.Path, 1)
					}
				}
				if ua != "" {
					autoAgents.Inc(ua, 1)
				}
			}

			if len(ans.RecentSessions) < maxSessionRows {
				ans.RecentSessions = append(ans.RecentSessions, SessionRow{
					TS:             sess.Start(),
					Classification: cls,
					Score:          score,
					Country:        country,
					Requests:       len(sess),
					Pageviews:      pvs,
					Duration:       sess.Duration(),
					FirstPath:      sess[0].Path,
					UserAgent:      truncateUA(ua),
				})
			}
		}
		ans.Summary.totals(visitorClass).Visitors++
	}

	// verified-bot fast path totals merge into the automated bucket
	ans.Summary.Automated.merge(botAgg.Totals)
	for _, item := range botAgg.Countries {
		if item.Country != "" {
			countriesAuto.Inc(item.Country, item.Count)
		}
	}
	for _, item := range botAgg.Agents {
		if item.Agent != "" {
			autoAgents.Inc(item.Agent, item.Count)
		}
	}

	sort.SliceStable(ans.RecentSessions, func(a, b int) bool {
		return ans.RecentSessions[a].TS > ans.RecentSessions[b].TS
	})

	ans.TopCountriesHuman = asCountryCounts(countriesHuman.TopN(topNDefault))
	ans.TopCountriesAutomated = asCountryCounts(countriesAuto.TopN(topNDefault))
	ans.TopSuspiciousPaths = asPathCounts(suspiciousPaths.TopN(topNDefault))
	ans.TopAutomatedAgents = asAgentCounts(autoAgents.TopN(topNAgents))
	ans.TopReferrersHuman = asRefererCounts(humanReferrers.TopN(topNDefault))
	return ans
}

func truncateUA(ua string) string {
	if len(ua) > maxUALen {
		return ua[:maxUALen]
	}
	return ua
}

func asCountryCounts(items []KeyCount) []CountryCount {
	ans := make([]CountryCount, len(items))
	for i, item := range items {
		ans[i] = CountryCount{Country: item.Key, Count: item.Count}
	}
	return ans
}

func asPathCounts(items []KeyCount) []PathCount {
	ans := make([]PathCount, len(items))
	for i, item := range items {
		ans[i] = PathCount{Path: item.Key, Count: item.Count}
	}
	return ans
}

func asAgentCounts(items []KeyCount) []AgentCount {
	ans := make([]AgentCount, len(items))
	for i, item := range items {
		ans[i] = AgentCount{Agent: item.Key, Count: item.Count}
	}
	return ans
}

func asRefererCounts(items []KeyCount) []RefererCount {
	ans := make([]RefererCount, len(items))
	for i, item := range items {
		ans[i] = RefererCount{Referer: item.Key, Count: item.Count}
	}
	return ans
}

// NewAnalyzer creates an analyzer with built-in token lists, optionally
// overridden from conf.TokenDefsPath.
func NewAnalyzer(conf *Conf) (*Analyzer, error) {
	tokens := DefaultTokenSets()
	if conf != nil && conf.TokenDefsPath != "" {
		var err error
		tokens, err = LoadTokenSets(conf.TokenDefsPath)
		if err != nil {
			return nil, err
		}
	}
	return &Analyzer{tokens: tokens}, nil
}

// Tokens exposes the analyzer's token sets, mainly so callers can attach
// the file watcher (TokenSets.GoWatch).
func (a *Analyzer) Tokens() *TokenSets {
	return a.tokens
}
