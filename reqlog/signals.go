// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package reqlog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hdiggity/harlanswitzer.com/common"
)

// SelfExcludeCookie marks the operator's own browser so their visits
// never enter the log store.
const SelfExcludeCookie = "self_exclude"

// ClientSignals carries everything the log store wants to know about
// the client of a single request, extracted from trusted proxy headers.
type ClientSignals struct {
	IPHash      string
	UserAgent   string
	Referer     string
	Country     string
	ASN         string
	Colo        string
	BotScore    *int
	VerifiedBot bool
}

// ExtractSignals reads client identity and bot-management signals from
// the configured trusted headers. Absent or malformed values degrade to
// their zero forms; extraction never fails.
func ExtractSignals(conf *Conf, req *http.Request) ClientSignals {
	ans := ClientSignals{
		IPHash:    common.HashIP(conf.IPHashSalt, clientIP(req)),
		UserAgent: req.UserAgent(),
		Referer:   req.Referer(),
		Country:   req.Header.Get(conf.CountryHeader),
		ASN:       req.Header.Get(conf.ASNHeader),
		Colo:      req.Header.Get(conf.ColoHeader),
	}
	if v := req.Header.Get(conf.BotScoreHeader); v != "" {
		if score, err := strconv.Atoi(v); err == nil {
			ans.BotScore = &score
		}
	}
	if v := req.Header.Get(conf.VerifiedBotHeader); v == "1" || strings.EqualFold(v, "true") {
		ans.VerifiedBot = true
	}
	return ans
}

// SelfExcluded tests whether the request carries the operator's
// exclusion cookie.
func SelfExcluded(req *http.Request) bool {
	cookie, err := req.Cookie(SelfExcludeCookie)
	return err == nil && cookie.Value == "1"
}

func clientIP(req *http.Request) string {
	if v := req.Header.Get("X-Forwarded-For"); v != "" {
		if i := strings.IndexByte(v, ','); i >= 0 {
			return strings.TrimSpace(v[:i])
		}
		return strings.TrimSpace(v)
	}
	if v := req.Header.Get("X-Real-IP"); v != "" {
		return v
	}
	host := req.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}
