// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package reqlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/hdiggity/harlanswitzer.com/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const selfExcludeTTLSecs = 365 * 24 * 3600

var secHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
	"Permissions-Policy":     "camera=(), microphone=(), geolocation=()",
	"Content-Security-Policy": "default-src 'none'; script-src 'self' 'unsafe-inline'; " +
		"style-src 'self' 'unsafe-inline'; connect-src 'self'; img-src 'self' data:; " +
		"frame-ancestors 'none'",
}

func pathSkipped(conf *Conf, path string) bool {
	for _, p := range conf.SkipPaths {
		if path == p || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// handleSelfToggle sets or clears the exclusion cookie when the request
// carries ?self=1 or ?self=0. Any other value is ignored. Toggle
// requests themselves are never logged.
func handleSelfToggle(ctx *gin.Context) bool {
	switch ctx.Query("self") {
	case "1":
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(SelfExcludeCookie, "1", selfExcludeTTLSecs, "/", "", false, false)
		return true
	case "0":
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(SelfExcludeCookie, "0", -1, "/", "", false, false)
		return true
	}
	return false
}

// Middleware observes each request and enqueues a log record once the
// handler chain finishes. It also attaches the security headers every
// response must carry.
func Middleware(conf *Conf, writer *LogWriter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		for k, v := range secHeaders {
			ctx.Header(k, v)
		}
		toggled := handleSelfToggle(ctx)
		skip := toggled || pathSkipped(conf, ctx.Request.URL.Path) || SelfExcluded(ctx.Request)

		ctx.Next()

		if skip {
			return
		}
		sig := ExtractSignals(conf, ctx.Request)
		writer.Enqueue(&storage.LogRecord{
			TS:          time.Now().Unix(),
			Host:        ctx.Request.Host,
			Path:        ctx.Request.URL.Path,
			Method:      ctx.Request.Method,
			Status:      ctx.Writer.Status(),
			Country:     sig.Country,
			ASN:         sig.ASN,
			Colo:        sig.Colo,
			UserAgent:   sig.UserAgent,
			Referer:     sig.Referer,
			Ray:         uuid.New().String(),
			BotScore:    sig.BotScore,
			VerifiedBot: sig.VerifiedBot,
			IPHash:      sig.IPHash,
		})
	}
}
