// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package session

import (
	"errors"
	"net/http"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
)

// userInfoKey is the gin context key under which the guard stores the
// verified user.
const userInfoKey = "userInfo"

// RequireAdmin verifies the request's session and rejects anything that
// is not an authenticated admin. On success the user info is attached to
// the gin context for downstream handlers.
func RequireAdmin(verifier Verifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, err := verifier.Verify(ctx.Request)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrNoSession) || errors.Is(err, ErrInvalidSession) {
				status = http.StatusUnauthorized
			}
			uniresp.WriteJSONErrorResponse(
				ctx.Writer, uniresp.NewActionError("unauthorized"), status)
			ctx.Abort()
			return
		}
		if !user.IsAdmin {
			uniresp.WriteJSONErrorResponse(
				ctx.Writer, uniresp.NewActionError("forbidden"), http.StatusForbidden)
			ctx.Abort()
			return
		}
		ctx.Set(userInfoKey, user)
		ctx.Next()
	}
}

// UserFromCtx fetches the verified user attached by RequireAdmin; the
// zero value is returned when the guard did not run.
func UserFromCtx(ctx *gin.Context) UserInfo {
	if v, ok := ctx.Get(userInfoKey); ok {
		if info, ok := v.(UserInfo); ok {
			return info
		}
	}
	return UserInfo{}
}
