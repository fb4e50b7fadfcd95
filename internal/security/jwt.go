package security

import (
	"strconv"
	"time"

	"bankapp/internal/apperr"
	"bankapp/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager 访问令牌签发与校验（HS256）
type JWTManager struct {
	secret []byte
	expire time.Duration
}

func NewJWTManager(cfg *config.JWTConfig) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.Secret),
		expire: time.Duration(cfg.AccessExpireMinutes) * time.Minute,
	}
}

type accessClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Issue 为身份签发访问令牌
func (m *JWTManager) Issue(identity *Identity) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Email: identity.Email,
		Roles: identity.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identity.CustomerID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expire)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", apperr.Internal("签发访问令牌失败", err)
	}
	return signed, nil
}

// Parse 校验访问令牌并还原身份
func (m *JWTManager) Parse(tokenString string) (*Identity, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("访问令牌无效或已过期")
	}

	customerID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, apperr.Unauthorized("访问令牌主体非法")
	}

	return &Identity{
		CustomerID: customerID,
		Email:      claims.Email,
		Roles:      claims.Roles,
	}, nil
}
