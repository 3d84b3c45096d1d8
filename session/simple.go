// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package session

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// StaticVerifier accepts a single configured bearer token. It exists for
// development setups and ops scripting where running the full auth stack
// is not worth it.
type StaticVerifier struct {
	token string
}

func (sv *StaticVerifier) Verify(req *http.Request) (UserInfo, error) {
	auth := req.Header.Get("Authorization")
	if auth == "" {
		return UserInfo{}, ErrNoSession
	}
	provided := strings.TrimPrefix(auth, "Bearer ")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(sv.token)) != 1 {
		return UserInfo{}, ErrInvalidSession
	}
	return UserInfo{Username: "static", IsAdmin: true}, nil
}

func NewStaticVerifier(token string) *StaticVerifier {
	return &StaticVerifier{token: token}
}

// ---------------------

// NullVerifier lets everything through as an anonymous admin. It must be
// selected explicitly in the configuration and is loudly logged, as it
// effectively disables auth on the admin API.
type NullVerifier struct {
}

func (nv *NullVerifier) Verify(req *http.Request) (UserInfo, error) {
	return UserInfo{Username: "anonymous", IsAdmin: true}, nil
}

func NewNullVerifier() *NullVerifier {
	log.Warn().Msg("using NULL session verifier - the admin API is open to anyone")
	return &NullVerifier{}
}

// NewVerifier creates a verifier matching the configured type.
func NewVerifier(conf *Conf) Verifier {
	switch conf.Type {
	case VerifierTypeRedis:
		log.Info().Str("addr", conf.RedisAddr).Msg("using redis session verifier")
		return NewRedisVerifier(conf)
	case VerifierTypeStatic:
		log.Info().Msg("using static token session verifier")
		return NewStaticVerifier(conf.StaticToken)
	default:
		return NewNullVerifier()
	}
}
