package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/andikarp/keranjang/internal/common"
	"github.com/andikarp/keranjang/internal/common/constants"
	inHttp "github.com/andikarp/keranjang/internal/http"
	"github.com/andikarp/keranjang/internal/log"
)

// Session guarantees every request carries a session key issued by this
// service. A missing or unverifiable cookie is replaced with a freshly issued
// one; a client can never smuggle in its own key.
func Session(secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).
				With().
				Str(log.KeyTag, "middleware Session").
				Logger()
			c := r.Context()

			sessionKey := ""
			cookie, err := r.Cookie(constants.SessionCookieName)
			if err == nil {
				sessionKey, err = common.VerifySessionToken(secretKey, cookie.Value)
				if err != nil {
					logger.Warn().Err(err).Msg("discarding unverifiable session cookie")
					sessionKey = ""
				}
			}
			if sessionKey == "" {
				key, signed, err := common.NewSessionToken(secretKey)
				if err != nil {
					// Without a session key the request would resolve into a
					// cart shared by every keyless caller.
					logger.Error().Err(err).Msg("failed issuing session token")
					inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
						"status":     "failed",
						"statusCode": http.StatusInternalServerError,
						"message":    "failed issuing session token",
					})
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     constants.SessionCookieName,
					Value:    signed,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				sessionKey = key
			}

			logger = logger.With().Str(log.KeySessionKey, sessionKey).Logger()
			logger.Trace().Msg("attached session key to context")
			c = common.AttachSessionKeyToContext(c, sessionKey)
			c = logger.WithContext(c)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
