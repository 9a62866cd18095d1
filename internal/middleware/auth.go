// Package middleware provides gin middleware for the http server.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Elmar465/SpendSnap/pkg/tokenpkg"
	"github.com/Elmar465/SpendSnap/pkg/web"
)

const (
	// AuthHeaderKey is the http header carrying the access token.
	AuthHeaderKey = "authorization"
	// AuthTypeBearer is the supported authorization scheme.
	AuthTypeBearer = "bearer"
	// AuthPayloadKey is the gin context key holding the verified token payload.
	AuthPayloadKey = "authorization_payload"
)

var (
	// ErrAuthHeaderNotFound indicates that the authorization header is missing.
	ErrAuthHeaderNotFound = errors.New("authorization header is not provided")
	// ErrBadAuthHeaderFormat indicates a malformed authorization header.
	ErrBadAuthHeaderFormat = errors.New("invalid authorization header format")
	// ErrUnsupportedAuthType indicates an authorization scheme other than bearer.
	ErrUnsupportedAuthType = errors.New("unsupported authorization type")
)

// AddAuthorization creates a token and sets the authorization header on the
// request. It is shared by handler tests across packages.
func AddAuthorization(
	t *testing.T,
	request *http.Request,
	tokenMaker tokenpkg.Maker,
	authType string,
	username string,
	userID int32,
	duration time.Duration,
) {
	token, _, err := tokenMaker.CreateToken(username, userID, duration)
	require.NoError(t, err)

	request.Header.Set(AuthHeaderKey, fmt.Sprintf("%s %s", authType, token))
}

// AuthMiddleware verifies the bearer token and stores its payload in the
// gin context under AuthPayloadKey.
func AuthMiddleware(tokenMaker tokenpkg.Maker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader(AuthHeaderKey)
		if len(authHeader) == 0 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrAuthHeaderNotFound))

			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrBadAuthHeaderFormat))

			return
		}

		authType := strings.ToLower(fields[0])
		if authType != AuthTypeBearer {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrUnsupportedAuthType))

			return
		}

		accessToken := fields[1]

		payload, err := tokenMaker.VerifyToken(accessToken)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(err))

			return
		}

		ctx.Set(AuthPayloadKey, payload)
		ctx.Next()
	}
}
