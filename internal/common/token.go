package common

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/andikarp/keranjang/internal/common/constants"
	inErrors "github.com/andikarp/keranjang/internal/errors"
)

type (
	userIdKey     struct{}
	sessionKeyKey struct{}
)

func AttachUserIDToContext(c context.Context, id uuid.UUID) context.Context {
	return context.WithValue(c, userIdKey{}, id)
}

func UserIDFromContext(c context.Context) (uuid.UUID, bool) {
	id, ok := c.Value(userIdKey{}).(uuid.UUID)
	return id, ok
}

func AttachSessionKeyToContext(c context.Context, key string) context.Context {
	return context.WithValue(c, sessionKeyKey{}, key)
}

func SessionKeyFromContext(c context.Context) string {
	key, ok := c.Value(sessionKeyKey{}).(string)
	if !ok {
		return ""
	}
	return key
}

func NewLoginToken(secretKey string, userID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{constants.AudienceUser},
			Issuer:    constants.AppCartService,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	)
	return token.SignedString([]byte(secretKey))
}

func VerifyLoginToken(secretKey, token string) (uuid.UUID, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token,
		&claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
		jwt.WithAudience(constants.AudienceUser),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(constants.AppCartService),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing with claims with error=%w", err)
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, inErrors.ErrTokenInvalid
	}
	return userID, nil
}

// NewSessionToken issues a fresh anonymous session key wrapped in a signed
// token. Only keys issued here are ever trusted; a client-supplied cookie that
// fails verification is discarded and reissued, which closes session fixation.
func NewSessionToken(secretKey string) (sessionKey string, signed string, err error) {
	sessionKey = uuid.NewString()
	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		jwt.RegisteredClaims{
			Issuer:   constants.AppCartService,
			Subject:  sessionKey,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	)
	signed, err = token.SignedString([]byte(secretKey))
	if err != nil {
		return "", "", err
	}
	return sessionKey, signed, nil
}

func VerifySessionToken(secretKey, token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token,
		&claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(constants.AppCartService),
	)
	if err != nil {
		return "", fmt.Errorf("failed parsing session token with error=%w", err)
	}
	if claims.Subject == "" {
		return "", inErrors.ErrTokenInvalid
	}
	return claims.Subject, nil
}
