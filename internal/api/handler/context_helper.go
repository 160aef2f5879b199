package handler

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cefet-timetable/backend/pkg/response"
)

// MustParseSemesters 解析 ?semesters=1,2 形式的学期列表。
// 参数缺失时返回 nil；格式非法时写入 400 响应并返回 false，调用方应直接 return。
func MustParseSemesters(c *gin.Context) ([]int, bool) {
	raw := strings.TrimSpace(c.Query("semesters"))
	if raw == "" {
		return nil, true
	}

	seen := make(map[int]bool)
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			response.BadRequest(c, codeInvalidQuery, "Parâmetro semesters inválido: "+part)
			return nil, false
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, true
}

// MustGetResultID 取路径参数 :id，为空时写入 400 响应
func MustGetResultID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.BadRequest(c, codeInvalidQuery, "ID do resultado ausente.")
		return "", false
	}
	return id, true
}
