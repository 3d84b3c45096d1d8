// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package traffic

import "github.com/hdiggity/harlanswitzer.com/common"

// scoreSession evaluates the additive scoring table over one session.
// Each contributing signal is independently inspectable; the thresholds in
// classifyScore turn the sum into a verdict. Bot score convention follows
// the edge: 1 = bot-like, 99 = human-like, so a LOW score is an automation
// signal.
func (a *Analyzer) scoreSession(reqs Session, ev visitorEvents) int {
	var score int

	// automation signals

	// verified bots are excluded before grouping; if one slips through,
	// make sure it cannot be classified as human
	if hasVerifiedBot(reqs) {
		score -= 5
	}

	if minScore, ok := minBotScore(reqs); ok {
		if minScore < 30 {
			score -= 4
		} else if minScore < 60 {
			score -= 2
		}
	}

	if hasSuspiciousStatus(reqs) {
		score -= 2
	}
	for _, req := range reqs {
		if a.isScannerPath(req.Path) {
			score -= 3
			break
		}
	}
	if hasBurst(reqs) {
		score -= 3
	}
	if hasCrawl(reqs) {
		score -= 2
	}

	// human signals

	pvs := reqs.PageviewCount()
	if pvs > 0 {
		score += 2
	}
	if hasReferrer(reqs) {
		score += 1
	}
	if a.isBrowserUA(reqs.UserAgent()) {
		score += 1
	}
	if reqs.Duration() >= engageDurationSecs && pvs >= engagePvMin {
		score += 2
	}
	if ev.hasInteractive &&
		ev.interactiveTS >= reqs.Start()-interactiveSlackSecs &&
		ev.interactiveTS <= reqs.End()+interactiveSlackSecs {
		score += 3
	}
	if ev.hasPerf && pvs > 0 {
		score += 1
	}

	return score
}

// classifyScore maps a session score to the three-way verdict. The
// thresholds are asymmetric on purpose - a couple of weak human signals
// suffice for `human` while `automated` requires a net-negative pattern;
// everything in between stays `unknown` (including the all-signals-absent
// score of 0).
func classifyScore(score int) common.Classification {
	if score >= humanThreshold {
		return common.ClassificationHuman
	}
	if score <= autoThreshold {
		return common.ClassificationAutomated
	}
	return common.ClassificationUnknown
}
