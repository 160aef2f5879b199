package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cefet-timetable/backend/pkg/response"
)

// BodyLimit 请求体大小限制中间件
//
// Content-Length 已知且超限时直接拒绝；未知长度的请求体由 MaxBytesReader 截断，
// 读取方在绑定时得到 *http.MaxBytesError。
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Corpo da requisição excede o tamanho permitido.")
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
