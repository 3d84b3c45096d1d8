// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package traffic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testAnalyzer(t *testing.T) *Analyzer {
	ans, err := NewAnalyzer(nil)
	assert.NoError(t, err)
	return ans
}

func sessionWithTimes(times []int64, path string) Session {
	ans := make(Session, len(times))
	for i, ts := range times {
		ans[i] = mkReq(ts, "v", path)
	}
	return ans
}

func TestHasBurst25In9Seconds(t *testing.T) {
	times := make([]int64, 25)
	for i := range times {
		times[i] = int64(i) * 9 / 24
	}
	assert.True(t, hasBurst(sessionWithTimes(times, "/api/x")))
}

func TestHasBurst19SpreadOver10Seconds(t *testing.T) {
	times := make([]int64, 19)
	for i := range times {
		times[i] = int64(i * 10 / 18)
	}
	assert.False(t, hasBurst(sessionWithTimes(times, "/api/x")))
}

func TestHasBurstBoundaryInclusive(t *testing.T) {
	// exactly burstMinReqs requests spanning exactly burstWindowSecs
	times := make([]int64, burstMinReqs)
	for i := range times {
		times[i] = int64(i) * burstWindowSecs / int64(burstMinReqs-1)
	}
	times[len(times)-1] = burstWindowSecs
	assert.True(t, hasBurst(sessionWithTimes(times, "/api/x")))
}

func TestHasCrawl15DistinctPathsIn100Seconds(t *testing.T) {
	sess := make(Session, 15)
	for i := range sess {
		sess[i] = mkReq(int64(i*7), "v", fmt.Sprintf("/page/%d", i))
	}
	assert.True(t, hasCrawl(sess))
}

func TestHasCrawl14DistinctPathsIsNotEnough(t *testing.T) {
	sess := make(Session, 15)
	for i := range sess {
		sess[i] = mkReq(int64(i*7), "v", fmt.Sprintf("/page/%d", i))
	}
	// repeat one path so only 14 remain distinct
	sess[14].Path = sess[0].Path
	assert.False(t, hasCrawl(sess))
}

func TestHasCrawlWindowSlidesOut(t *testing.T) {
	// 15 distinct paths but spread over far more than the window
	sess := make(Session, 15)
	for i := range sess {
		sess[i] = mkReq(int64(i)*60, "v", fmt.Sprintf("/page/%d", i))
	}
	assert.False(t, hasCrawl(sess))
}

func TestIsScannerPath(t *testing.T) {
	a := testAnalyzer(t)
	assert.True(t, a.isScannerPath("/wp-login.php"))
	assert.True(t, a.isScannerPath("/old/.env"))
	assert.True(t, a.isScannerPath("/PHPMyAdmin/index.php"))
	assert.True(t, a.isScannerPath("/xmlrpc.php"))
	assert.False(t, a.isScannerPath("/about.html"))
	assert.False(t, a.isScannerPath(""))
}

func TestSuspiciousStatus(t *testing.T) {
	sess := Session{mkReq(0, "v", "/api")}
	sess[0].Method = "POST"
	sess[0].Status = 404
	assert.True(t, hasSuspiciousStatus(sess))

	sess[0].Status = 200
	assert.False(t, hasSuspiciousStatus(sess))

	sess[0].Method = "GET"
	sess[0].Status = 404
	assert.False(t, hasSuspiciousStatus(sess))
}

func TestIsPageview(t *testing.T) {
	assert.True(t, isPageview("GET", "/"))
	assert.True(t, isPageview("GET", "/about.html"))
	assert.False(t, isPageview("POST", "/"))
	assert.False(t, isPageview("GET", "/api/items"))
}

func TestBrowserUABotTokensTakePrecedence(t *testing.T) {
	a := testAnalyzer(t)
	assert.True(t, a.isBrowserUA("Mozilla/5.0 (Macintosh) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"))
	assert.False(t, a.isBrowserUA("Mozilla/5.0 (compatible; Googlebot/2.1) Chrome/99.0 Safari/537.36"))
	assert.False(t, a.isBrowserUA("python-requests/2.31"))
	assert.False(t, a.isBrowserUA(""))
}

func TestMinBotScore(t *testing.T) {
	s1, s2 := 70, 25
	sess := Session{mkReq(0, "v", "/"), mkReq(1, "v", "/")}
	sess[0].BotScore = &s1
	sess[1].BotScore = &s2
	min, ok := minBotScore(sess)
	assert.True(t, ok)
	assert.Equal(t, 25, min)

	sess[0].BotScore = nil
	sess[1].BotScore = nil
	_, ok = minBotScore(sess)
	assert.False(t, ok)
}
