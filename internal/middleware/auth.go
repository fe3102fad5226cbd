package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/andikarp/keranjang/internal/common"
	inErrors "github.com/andikarp/keranjang/internal/errors"
	inHttp "github.com/andikarp/keranjang/internal/http"
	"github.com/andikarp/keranjang/internal/log"
)

// Auth attaches the authenticated user to the context when a bearer token is
// presented. A request without an Authorization header stays anonymous and
// proceeds on its session key; a header that fails verification is rejected.
func Auth(secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).
				With().
				Str(log.KeyTag, "middleware Auth").
				Logger()
			c := logger.WithContext(r.Context())

			authorization := r.Header.Get("Authorization")
			if authorization == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(authorization, "Bearer ")
			token = strings.TrimPrefix(token, "bearer ")
			userID, err := common.VerifyLoginToken(secretKey, token)
			if err != nil {
				logger.Error().Err(err).Msg(inErrors.ErrTokenInvalid.Error())
				inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     "failed",
					"statusCode": http.StatusUnauthorized,
					"message":    inErrors.ErrTokenInvalid.Error(),
				})
				return
			}

			logger = logger.With().Str(log.KeyUserID, userID.String()).Logger()
			logger.Trace().Msg("attached user id to context")
			c = common.AttachUserIDToContext(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
