// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package traffic

import (
	"testing"

	"github.com/hdiggity/harlanswitzer.com/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyScoreMapping(t *testing.T) {
	for s := -10; s <= 10; s++ {
		cls := classifyScore(s)
		switch {
		case s >= 2:
			assert.Equal(t, common.ClassificationHuman, cls, "score %d", s)
		case s <= -2:
			assert.Equal(t, common.ClassificationAutomated, cls, "score %d", s)
		default:
			assert.Equal(t, common.ClassificationUnknown, cls, "score %d", s)
		}
		assert.NoError(t, cls.Validate())
	}
}

func TestScoreNoSignalsIsUnknown(t *testing.T) {
	a := testAnalyzer(t)
	sess := Session{{
		TS:      1000,
		Visitor: common.VisitorKey{IPHash: "h", UserAgent: "SomeClient/1.0"},
		Path:    "/api/items",
		Method:  "GET",
		Status:  200,
	}}
	score := a.scoreSession(sess, visitorEvents{})
	assert.Equal(t, 0, score)
	assert.Equal(t, common.ClassificationUnknown, classifyScore(score))
}

// single pageview from a scoreless Chrome browser: pageview (+2),
// browser UA (+1), bot score absent (0) => 3 => human
func TestScoreScenarioSinglePageview(t *testing.T) {
	a := testAnalyzer(t)
	bs := 90
	sess := Session{{
		TS:       1000,
		Visitor:  common.VisitorKey{IPHash: "h", UserAgent: "Mozilla/5.0 (X11; Linux x86_64) Chrome/120.0"},
		Path:     "/",
		Method:   "GET",
		Status:   200,
		BotScore: &bs,
	}}
	score := a.scoreSession(sess, visitorEvents{})
	assert.Equal(t, 3, score)
	assert.Equal(t, common.ClassificationHuman, classifyScore(score))
}

// 22 requests in 8 seconds from python-requests with bot score 5:
// burst (-3) + bot score < 30 (-4) => -7 => automated
func TestScoreScenarioApiBurst(t *testing.T) {
	a := testAnalyzer(t)
	bs := 5
	sess := make(Session, 22)
	for i := range sess {
		sess[i] = Request{
			TS:       int64(1000 + i*8/21),
			Visitor:  common.VisitorKey{IPHash: "h", UserAgent: "python-requests/2.31"},
			Path:     "/api/x",
			Method:   "GET",
			Status:   200,
			BotScore: &bs,
		}
	}
	score := a.scoreSession(sess, visitorEvents{})
	assert.Equal(t, -7, score)
	assert.Equal(t, common.ClassificationAutomated, classifyScore(score))
}

// single GET /wp-login.php 404 with no bot score: scanner path (-3) only
// => automated
func TestScoreScenarioScannerProbe(t *testing.T) {
	a := testAnalyzer(t)
	sess := Session{{
		TS:      1000,
		Visitor: common.VisitorKey{IPHash: "h", UserAgent: "SomeClient/1.0"},
		Path:    "/wp-login.php",
		Method:  "GET",
		Status:  404,
	}}
	score := a.scoreSession(sess, visitorEvents{})
	assert.Equal(t, -3, score)
	assert.Equal(t, common.ClassificationAutomated, classifyScore(score))
}

func TestScoreVerifiedBotPenalty(t *testing.T) {
	a := testAnalyzer(t)
	sess := Session{{
		TS:          1000,
		Visitor:     common.VisitorKey{IPHash: "h", UserAgent: "SomeClient/1.0"},
		Path:        "/",
		Method:      "GET",
		Status:      200,
		VerifiedBot: true,
	}}
	// pageview +2, verified bot -5
	assert.Equal(t, -3, a.scoreSession(sess, visitorEvents{}))
}

func TestScoreEngagementAndInteractivity(t *testing.T) {
	a := testAnalyzer(t)
	ua := "Mozilla/5.0 Firefox/121.0"
	sess := Session{
		{TS: 1000, Visitor: common.VisitorKey{IPHash: "h", UserAgent: ua}, Path: "/", Method: "GET", Status: 200, Referer: "https://duckduckgo.com/"},
		{TS: 1030, Visitor: common.VisitorKey{IPHash: "h", UserAgent: ua}, Path: "/about.html", Method: "GET", Status: 200},
	}
	ev := visitorEvents{interactiveTS: 1010, hasInteractive: true, hasPerf: true}
	// pageviews +2, referrer +1, browser UA +1, engagement +2,
	// interactivity +3, performance +1
	score := a.scoreSession(sess, ev)
	assert.Equal(t, 10, score)
	assert.Equal(t, common.ClassificationHuman, classifyScore(score))
}

func TestScoreInteractivitySlackWindow(t *testing.T) {
	a := testAnalyzer(t)
	sess := Session{mkReq(1000, "h", "/api/x")}

	inWindow := visitorEvents{interactiveTS: 1000 - interactiveSlackSecs, hasInteractive: true}
	outOfWindow := visitorEvents{interactiveTS: 1000 - interactiveSlackSecs - 1, hasInteractive: true}

	assert.Equal(t, 3, a.scoreSession(sess, inWindow))
	assert.Equal(t, 0, a.scoreSession(sess, outOfWindow))
}

func TestScoreBorderlineBotScoreBand(t *testing.T) {
	a := testAnalyzer(t)
	for _, tc := range []struct {
		botScore int
		expected int
	}{
		{10, -4},
		{29, -4},
		{30, -2},
		{59, -2},
		{60, 0},
		{99, 0},
	} {
		bs := tc.botScore
		sess := Session{mkReq(0, "h", "/api/x")}
		sess[0].BotScore = &bs
		require.Equal(t, tc.expected, a.scoreSession(sess, visitorEvents{}), "botScore %d", tc.botScore)
	}
}
