package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"cefet-timetable/backend/pkg/jwt"
	"cefet-timetable/backend/pkg/response"
)

const resultIDKey = "result_id"

// bearerToken 从 Authorization: Bearer <token> 中提取令牌
//
// 浏览器直接下载附件时无法带请求头，允许用 ?token= 传递。
func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if t := c.Query("token"); t != "" {
		return t, true
	}
	return "", false
}

// ResultAuth 结果访问令牌中间件
// 令牌主体必须等于路径参数 :id
func ResultAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, 10002, "Token de acesso ausente ou inválido.")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			msg := "Token de acesso inválido."
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token de acesso expirado. Gere o horário novamente."
			}
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}

		if claims.ResultID() != c.Param("id") {
			response.Forbidden(c, 10003, "Este token não dá acesso a este resultado.")
			c.Abort()
			return
		}

		c.Set(resultIDKey, claims.ResultID())
		c.Next()
	}
}

// AdminAuth 管理令牌中间件，未配置管理令牌时拒绝所有请求
func AdminAuth(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken == "" {
			response.Forbidden(c, 10003, "Acesso administrativo desativado.")
			c.Abort()
			return
		}

		token := c.GetHeader("X-Admin-Token")
		if token == "" {
			token, _ = bearerToken(c)
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
			response.Unauthorized(c, 10002, "Token administrativo inválido.")
			c.Abort()
			return
		}

		c.Next()
	}
}
