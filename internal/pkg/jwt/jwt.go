package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const stateIssuer = "pipedash"

// StateClaims OAuth state Claims
type StateClaims struct {
	State string `json:"state"`
	jwt.RegisteredClaims
}

// GenerateStateToken 签发携带 OAuth state 的短期 Token
func GenerateStateToken(key []byte, state string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := StateClaims{
		State: state,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    stateIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ParseStateToken 校验签名与有效期，返回其中的 state
func ParseStateToken(key []byte, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StateClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithIssuer(stateIssuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*StateClaims)
	if !ok || !token.Valid || claims.State == "" {
		return "", errors.New("invalid state token")
	}
	return claims.State, nil
}
