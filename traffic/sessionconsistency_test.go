// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package traffic

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lagSessionStarts mirrors the SQL fast-path predicate
// `prev_ts IS NULL OR ts - prev_ts > SessionGapSecs` used for verified-bot
// sessionization, so both mechanisms can be checked against shared data.
func lagSessionStarts(times []int64) []int64 {
	var starts []int64
	for i, ts := range times {
		if i == 0 || ts-times[i-1] > SessionGapSecs {
			starts = append(starts, ts)
		}
	}
	return starts
}

// the in-process grouper and the SQL lag predicate implement the same
// session boundary rule; verify they agree on synthetic visitor timelines
func TestSessionizeMatchesLagPredicate(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rnd.Intn(60)
		times := make([]int64, n)
		ts := int64(1000)
		for i := range times {
			times[i] = ts
			// mix short intra-session gaps with occasional long ones,
			// including values right at the boundary
			switch rnd.Intn(5) {
			case 0:
				ts += SessionGapSecs
			case 1:
				ts += SessionGapSecs + 1
			default:
				ts += int64(rnd.Intn(300))
			}
		}

		reqs := make([]Request, n)
		for i, tv := range times {
			reqs[i] = mkReq(tv, "v", "/")
		}
		sessions := sessionize(reqs)
		starts := lagSessionStarts(times)

		require.Equal(t, len(starts), len(sessions), "trial %d", trial)
		for i, sess := range sessions {
			assert.Equal(t, starts[i], sess.Start(), "trial %d session %d", trial, i)
		}
	}
}
