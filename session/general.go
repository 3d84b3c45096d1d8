// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package session

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoSession means the request carried no usable credential at all,
// ErrInvalidSession that it carried one which did not check out.
var (
	ErrNoSession      = errors.New("no session credential")
	ErrInvalidSession = errors.New("invalid session credential")
)

const (
	// SessionCookie is the cookie the external auth layer sets on login.
	SessionCookie = "hs_session"

	DfltSessionTTLSecs = 14 * 24 * 3600
)

type VerifierType string

const (
	VerifierTypeRedis  VerifierType = "redis"
	VerifierTypeStatic VerifierType = "static"
	VerifierTypeNull   VerifierType = "null"
)

func (vt VerifierType) Validate() error {
	switch vt {
	case VerifierTypeRedis, VerifierTypeStatic, VerifierTypeNull:
		return nil
	}
	return fmt.Errorf("invalid session verifier type: `%s`", vt)
}

// UserInfo describes the authenticated caller as asserted by the external
// auth collaborator. The analytics API itself never creates sessions.
type UserInfo struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Verifier checks a request's session credential. Implementations must
// treat a missing credential and a wrong credential as distinct errors
// (ErrNoSession vs ErrInvalidSession) so handlers can pick 401 vs 403.
type Verifier interface {
	Verify(req *http.Request) (UserInfo, error)
}

type Conf struct {
	Type VerifierType `json:"type"`

	// RedisAddr etc. apply to the `redis` verifier
	RedisAddr   string `json:"redisAddr"`
	RedisDB     int    `json:"redisDb"`
	RedisPrefix string `json:"redisPrefix"`
	TTLSecs     int    `json:"ttlSecs"`

	// StaticToken applies to the `static` verifier
	StaticToken string `json:"staticToken"`
}

func (conf *Conf) Validate(context string) error {
	if conf.Type == "" {
		conf.Type = VerifierTypeNull
	}
	if err := conf.Type.Validate(); err != nil {
		return fmt.Errorf("%s.type: %w", context, err)
	}
	if conf.Type == VerifierTypeRedis && conf.RedisAddr == "" {
		return fmt.Errorf("%s.redisAddr is empty/missing", context)
	}
	if conf.Type == VerifierTypeStatic && conf.StaticToken == "" {
		return fmt.Errorf("%s.staticToken is empty/missing", context)
	}
	if conf.TTLSecs == 0 {
		conf.TTLSecs = DfltSessionTTLSecs
	}
	return nil
}
