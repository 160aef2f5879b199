package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cefet-timetable/backend/config"
	"cefet-timetable/backend/internal/api/handler"
	"cefet-timetable/backend/internal/api/middleware"
	"cefet-timetable/backend/internal/dto"
	"cefet-timetable/backend/pkg/jwt"
	"cefet-timetable/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时不限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, db *gorm.DB, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db, rdb))

	var limiter middleware.Limiter
	if rdb != nil {
		limiter = rdb
	}
	resultAuth := middleware.ResultAuth(jwtMgr)
	adminAuth := middleware.AdminAuth(cfg.Auth.AdminToken)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		timetables := v1.Group("/timetables")
		{
			timetables.POST("/generate",
				middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window, logger),
				h.Timetable.Generate)
			timetables.POST("", h.Timetable.Save)

			// 管理接口
			timetables.GET("", adminAuth, h.Timetable.List)
			timetables.DELETE("/:id", adminAuth, h.Timetable.Delete)

			// 凭结果访问令牌
			result := timetables.Group("/:id", resultAuth)
			{
				result.GET("", h.Timetable.Get)
				result.GET("/view", h.Timetable.GetView)
				result.GET("/summary", h.Timetable.GetSummary)
				result.GET("/export/pdf", h.Export.ExportPDF)
				result.GET("/export/xlsx", h.Export.ExportXLSX)
				result.GET("/export/ics", h.Export.ExportICS)
				result.GET("/download/timetable", h.Export.DownloadTimetable)
				result.GET("/download/input", h.Export.DownloadInput)
			}
		}

		// 无状态渲染（不落库）
		render := v1.Group("/render")
		{
			render.POST("/view", h.Timetable.RenderView)
			render.POST("/pdf", h.Export.RenderPDF)
		}
	}

	return r
}

func healthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp := dto.HealthResponse{Status: "ok", Database: "ok", Redis: "disabled"}
		status := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			resp.Status, resp.Database = "degraded", "down"
			status = http.StatusServiceUnavailable
		}
		if rdb != nil {
			resp.Redis = "ok"
			if err := rdb.Ping(ctx); err != nil {
				resp.Redis = "down"
			}
		}
		c.JSON(status, resp)
	}
}
