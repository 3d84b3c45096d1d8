// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package common

import (
	"crypto/sha256"
	"fmt"
)

// HashIP produces the salted SHA-256 hex digest used as the visitor IP
// identifier everywhere in the log store. An empty IP yields an empty
// hash so "unknown client" stays distinguishable from a real one.
func HashIP(salt, ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(salt+ip)))
}
