package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andikarp/keranjang/internal/common"
	"github.com/andikarp/keranjang/internal/common/constants"
)

const testSecretKey = "test-secret-key"

func sessionRecorder(r *http.Request) (*httptest.ResponseRecorder, string) {
	attached := ""
	handler := Session(testSecretKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attached = common.SessionKeyFromContext(r.Context())
	}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, r)
	return recorder, attached
}

func sessionCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == constants.SessionCookieName {
			return cookie
		}
	}
	return nil
}

func TestSessionIssuesKeyWhenCookieMissing(t *testing.T) {
	recorder, attached := sessionRecorder(httptest.NewRequest(http.MethodGet, "/carts", nil))

	// A request never reaches a handler without a session key of our own
	// issuance.
	assert.NotEmpty(t, attached)
	cookie := sessionCookie(t, recorder)
	assert.NotNil(t, cookie)
	key, err := common.VerifySessionToken(testSecretKey, cookie.Value)
	assert.NoError(t, err)
	assert.Equal(t, attached, key)
}

func TestSessionReplacesUnverifiableCookie(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/carts", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "forged"})

	recorder, attached := sessionRecorder(request)

	assert.NotEmpty(t, attached)
	cookie := sessionCookie(t, recorder)
	assert.NotNil(t, cookie)
	assert.NotEqual(t, "forged", cookie.Value)
}

func TestSessionKeepsVerifiedCookie(t *testing.T) {
	key, signed, err := common.NewSessionToken(testSecretKey)
	assert.NoError(t, err)
	request := httptest.NewRequest(http.MethodGet, "/carts", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: signed})

	recorder, attached := sessionRecorder(request)

	assert.Equal(t, key, attached)
	assert.Nil(t, sessionCookie(t, recorder))
}
