package userservice

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid authentication token")

type authClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	UserID   int    `json:"user_id"`
}

// signAuthToken issues a signed bearer token binding the user identity.
// Tokens carry no expiry and there is no revocation mechanism.
func signAuthToken(u *User, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authClaims{
		Username: u.Username,
		UserID:   u.ID,
	})

	return token.SignedString(secret)
}

func parseAuthToken(tokenString string, secret []byte) (*authClaims, error) {
	claims := &authClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.UserID < 1 || claims.Username == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
