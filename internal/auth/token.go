package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ExtractTokenFromRequest pulls the bearer token out of the
// Authorization header.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

// ExtractUserIDFromJWT reads the 'sub' claim without verifying the
// signature. Only used for audit logging of which scanner validated a
// ticket; routes needing real verification go through Middleware.
func ExtractUserIDFromJWT(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.New("empty token")
	}

	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject claim")
	}
	return sub, nil
}
