package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"cefet-timetable/backend/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

const (
	issuer = "grade-horaria"
	// ScopeResult 结果访问令牌
	ScopeResult = "result"
)

// Claims 结果访问令牌声明，Subject 为结果 ID
type Claims struct {
	Scope string `json:"scope"`
	jwtv5.RegisteredClaims
}

// ResultID 令牌授权访问的结果
func (c *Claims) ResultID() string {
	return c.Subject
}

// Manager JWT 管理器
type Manager struct {
	secret    []byte
	resultTTL time.Duration
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:    []byte(cfg.JWTSecret),
		resultTTL: cfg.ResultTTL,
	}
}

// GenerateResultToken 为结果签发访问令牌，返回令牌与过期时间
func (m *Manager) GenerateResultToken(resultID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.resultTTL)
	claims := Claims{
		Scope: ScopeResult,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   resultID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(expiresAt),
			Issuer:    issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Scope != ScopeResult || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
