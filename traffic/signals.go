// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package traffic

import "strings"

// The detectors below are independent of each other and each is total over
// its domain - a missing path, user agent, referer or bot score simply
// yields "signal absent", never an error.

func matchesAnyToken(s string, tokens []string) bool {
	ls := strings.ToLower(s)
	for _, tok := range tokens {
		if strings.Contains(ls, tok) {
			return true
		}
	}
	return false
}

func (a *Analyzer) isScannerPath(path string) bool {
	if path == "" {
		return false
	}
	return matchesAnyToken(path, a.tokens.ScannerTokens())
}

func (a *Analyzer) isBotUA(ua string) bool {
	if ua == "" {
		return false
	}
	return matchesAnyToken(ua, a.tokens.BotUATokens())
}

// isBrowserUA tests for a known browser user agent. Bot tokens take
// precedence - "Googlebot ... Chrome/..." is a bot, not a browser.
func (a *Analyzer) isBrowserUA(ua string) bool {
	if ua == "" {
		return false
	}
	return matchesAnyToken(ua, a.tokens.BrowserUATokens()) && !a.isBotUA(ua)
}

func isPageview(method, path string) bool {
	return method == "GET" && (path == "/" || strings.HasSuffix(path, ".html"))
}

// hasBurst reports whether any sliding window of burstWindowSecs within the
// time-sorted session contains at least burstMinReqs requests. The window is
// inclusive of both endpoints (a span of exactly burstWindowSecs counts).
// Two-pointer scan, O(n).
func hasBurst(reqs Session) bool {
	var left int
	for right := range reqs {
		for reqs[right].TS-reqs[left].TS > burstWindowSecs {
			left++
		}
		if right-left+1 >= burstMinReqs {
			return true
		}
	}
	return false
}

// hasCrawl reports whether any sliding window of crawlWindowSecs contains at
// least crawlMinPaths distinct paths. Same two-pointer scheme as hasBurst
// with a path->count map maintaining a running distinct count, O(n).
func hasCrawl(reqs Session) bool {
	counts := make(map[string]int)
	var unique, left int
	for right := range reqs {
		p := reqs[right].Path
		counts[p]++
		if counts[p] == 1 {
			unique++
		}
		for reqs[right].TS-reqs[left].TS > crawlWindowSecs {
			lp := reqs[left].Path
			counts[lp]--
			if counts[lp] == 0 {
				delete(counts, lp)
				unique--
			}
			left++
		}
		if unique >= crawlMinPaths {
			return true
		}
	}
	return false
}

// hasSuspiciousStatus reports whether any request pairs a mutating method
// with an auth/not-found class status - typical of credential stuffing and
// endpoint probing.
func hasSuspiciousStatus(reqs Session) bool {
	for _, req := range reqs {
		switch req.Method {
		case "POST", "PUT", "PATCH":
			switch req.Status {
			case 401, 403, 404, 405:
				return true
			}
		}
	}
	return false
}

func hasReferrer(reqs Session) bool {
	for _, req := range reqs {
		if req.Referer != "" {
			return true
		}
	}
	return false
}

func hasVerifiedBot(reqs Session) bool {
	for _, req := range reqs {
		if req.VerifiedBot {
			return true
		}
	}
	return false
}

// minBotScore returns the minimum non-nil bot score of the session and
// whether any score was present at all.
func minBotScore(reqs Session) (int, bool) {
	var min int
	var found bool
	for _, req := range reqs {
		if req.BotScore != nil && (!found || *req.BotScore < min) {
			min = *req.BotScore
			found = true
		}
	}
	return min, found
}
