// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package traffic

import (
	"sort"

	"github.com/hdiggity/harlanswitzer.com/common"
)

// visitorActivity is one visitor's complete request list within the window,
// time-ascending.
type visitorActivity struct {
	key      common.VisitorKey
	requests []Request
}

// groupByVisitor partitions the window's requests per visitor key. The
// returned slice preserves first-seen visitor order so a whole
// classification run stays deterministic for a frozen input set (Go map
// iteration alone would not be). Each visitor's request list is sorted by
// time; the store already returns rows time-ascending but the grouper does
// not rely on that.
func groupByVisitor(reqs []Request) []visitorActivity {
	index := make(map[common.VisitorKey]int)
	ans := make([]visitorActivity, 0, len(reqs)/4+1)
	for _, req := range reqs {
		pos, ok := index[req.Visitor]
		if !ok {
			pos = len(ans)
			index[req.Visitor] = pos
			ans = append(ans, visitorActivity{key: req.Visitor})
		}
		ans[pos].requests = append(ans[pos].requests, req)
	}
	for i := range ans {
		sort.SliceStable(ans[i].requests, func(a, b int) bool {
			return ans[i].requests[a].TS < ans[i].requests[b].TS
		})
	}
	return ans
}

// sessionize splits one visitor's time-ascending requests into sessions
// using the SessionGapSecs inactivity rule. A gap strictly greater than
// the boundary starts a new session; the sessions partition the input
// exactly (no request is dropped or duplicated).
func sessionize(reqs []Request) []Session {
	if len(reqs) == 0 {
		return nil
	}
	ans := make([]Session, 0, 1)
	cur := Session{reqs[0]}
	for _, req := range reqs[1:] {
		if req.TS-cur[len(cur)-1].TS > SessionGapSecs {
			ans = append(ans, cur)
			cur = Session{}
		}
		cur = append(cur, req)
	}
	return append(ans, cur)
}
