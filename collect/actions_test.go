// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package collect

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hdiggity/harlanswitzer.com/metrics"
	"github.com/hdiggity/harlanswitzer.com/reporting"
	"github.com/hdiggity/harlanswitzer.com/reqlog"
	"github.com/hdiggity/harlanswitzer.com/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeEventStore struct {
	mu      sync.Mutex
	batches [][]storage.EventRecord
}

func (s *fakeEventStore) InsertEvents(recs []storage.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, recs)
	return nil
}

func testActions(conf *Conf) (*Actions, *fakeEventStore) {
	gin.SetMode(gin.TestMode)
	if conf == nil {
		conf = &Conf{}
		conf.ApplyDefaults()
	}
	reqlogConf := &reqlog.Conf{IPHashSalt: "pepper"}
	reqlogConf.ApplyDefaults()
	store := &fakeEventStore{}
	m, _ := metrics.New()
	return NewActions(conf, reqlogConf, store, &reporting.NullWriter{}, m), store
}

func postCollect(actions *Actions, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.POST("/collect", actions.HandleCollect)
	req := httptest.NewRequest("POST", "/collect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 Chrome/128.0")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCollectStoresBatch(t *testing.T) {
	actions, store := testActions(nil)
	w := postCollect(actions, `[
		{"ts": 1700000000, "vid": "v1", "sid": "s1", "type": "pageview", "path": "/"},
		{"type": "click", "path": "/", "data": {"x": 10, "y": 20}}
	]`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.batches, 1)
	batch := store.batches[0]
	assert.Len(t, batch, 2)
	assert.Equal(t, int64(1700000000), batch[0].TS)
	assert.Equal(t, "pageview", batch[0].Type)
	assert.Equal(t, "Mozilla/5.0 Chrome/128.0", batch[0].UserAgent)
	// missing ts falls back to server time
	assert.Greater(t, batch[1].TS, int64(1700000000))
	assert.JSONEq(t, `{"x": 10, "y": 20}`, batch[1].Data)
}

func TestCollectRejectsEmptyBatch(t *testing.T) {
	actions, store := testActions(nil)
	w := postCollect(actions, `[]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.batches)
}

func TestCollectRejectsOversizeBatch(t *testing.T) {
	actions, store := testActions(nil)
	items := make([]string, MaxBatchSize+1)
	for i := range items {
		items[i] = `{"type": "click"}`
	}
	w := postCollect(actions, "["+strings.Join(items, ",")+"]")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.batches)
}

func TestCollectRejectsMalformedPayload(t *testing.T) {
	actions, store := testActions(nil)
	w := postCollect(actions, `{"not": "an array"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.batches)
}

func TestCollectRespectsSelfExclude(t *testing.T) {
	actions, store := testActions(nil)
	w := postCollect(
		actions,
		`[{"type": "click"}]`,
		&http.Cookie{Name: reqlog.SelfExcludeCookie, Value: "1"},
	)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.batches)
}

func TestCollectRateLimits(t *testing.T) {
	actions, store := testActions(&Conf{ReqPerSec: 0.001, ReqBurst: 1})
	w1 := postCollect(actions, `[{"type": "click"}]`)
	assert.Equal(t, http.StatusOK, w1.Code)
	w2 := postCollect(actions, `[{"type": "click"}]`)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	assert.Len(t, store.batches, 1)
}
