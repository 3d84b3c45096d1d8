// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package reqlog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hdiggity/harlanswitzer.com/metrics"
	"github.com/hdiggity/harlanswitzer.com/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	mu   sync.Mutex
	recs []*storage.LogRecord
}

func (s *fakeStore) InsertRequest(rec *storage.LogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *fakeStore) numRecs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

func (s *fakeStore) lastRec() *storage.LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recs[len(s.recs)-1]
}

func testEngine(t *testing.T) (*gin.Engine, *fakeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conf := testConf()
	store := &fakeStore{}
	m, _ := metrics.New()
	writer := NewLogWriter(conf, store, m)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	writer.GoRun(ctx)

	engine := gin.New()
	engine.Use(Middleware(conf, writer))
	engine.GET("/", func(ctx *gin.Context) { ctx.String(http.StatusOK, "home") })
	engine.GET("/collect", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	return engine, store
}

func TestMiddlewareLogsRequest(t *testing.T) {
	engine, store := testEngine(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 Firefox/130.0")
	req.Header.Set("X-Bot-Score", "92")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Eventually(t, func() bool { return store.numRecs() == 1 }, time.Second, 5*time.Millisecond)
	rec := store.lastRec()
	assert.Equal(t, "/", rec.Path)
	assert.Equal(t, "GET", rec.Method)
	assert.Equal(t, http.StatusOK, rec.Status)
	assert.Equal(t, "Mozilla/5.0 Firefox/130.0", rec.UserAgent)
	assert.NotNil(t, rec.BotScore)
	assert.Equal(t, 92, *rec.BotScore)
	assert.NotEmpty(t, rec.Ray)
	assert.NotEmpty(t, rec.IPHash)
}

func TestMiddlewareSkipsConfiguredPaths(t *testing.T) {
	engine, store := testEngine(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/collect", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, store.numRecs())
}

func TestMiddlewareRespectsSelfExclude(t *testing.T) {
	engine, store := testEngine(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SelfExcludeCookie, Value: "1"})
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, store.numRecs())
}

func TestMiddlewareSelfToggle(t *testing.T) {
	engine, _ := testEngine(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/?self=1", nil))

	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SelfExcludeCookie {
			found = c
		}
	}
	assert.NotNil(t, found)
	assert.Equal(t, "1", found.Value)
	assert.Greater(t, found.MaxAge, 0)
}

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	engine, _ := testEngine(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, w.Header().Get("Referrer-Policy"))
}
