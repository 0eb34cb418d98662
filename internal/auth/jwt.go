package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gwi.com/wishlist-assistant/internal/config"
)

const sessionTTL = 30 * 24 * time.Hour

// NewSessionToken mints a token for a fresh anonymous owner.
func NewSessionToken() (token string, owner string, err error) {
	owner = uuid.NewString()
	token, err = GenerateJWT(owner)
	return token, owner, err
}

func GenerateJWT(owner string) (string, error) {
	claims := jwt.MapClaims{
		"sub": owner,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(sessionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return "", fmt.Errorf("token has no subject")
		}
		return sub, nil
	}

	return "", fmt.Errorf("invalid token")
}
