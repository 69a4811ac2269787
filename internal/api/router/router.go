package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"homework-tracker/config"
	"homework-tracker/internal/api/handler"
	"homework-tracker/internal/api/middleware"
	"homework-tracker/internal/model"
	"homework-tracker/pkg/jwt"
	"homework-tracker/pkg/redis"
	"homework-tracker/pkg/validate"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil（未配置或连接失败），此时黑名单检查跳过、限流降级为进程内计数
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	validate.Setup()

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := middleware.JWTAuth(jwtMgr, rdb)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API ──
	api := r.Group("/api")
	{
		api.GET("/status", h.System.Status)
		if cfg.Feature.DBInitEnabled {
			api.POST("/db/init", h.System.InitDB)
		}

		// 认证模块
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, cfg.RateLimit.LoginPerMinute, time.Minute, logger), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", authRequired, h.Auth.Logout)
			auth.GET("/me", authRequired, h.Auth.GetCurrentUser)
		}

		// 用户模块
		users := api.Group("/users")
		{
			users.POST("", middleware.OptionalJWT(jwtMgr, rdb), h.User.CreateUser)
			users.GET("", authRequired, adminOnly, h.User.ListUsers)
			users.GET("/:id", authRequired, adminOnly, h.User.GetUser)
		}

		// 作业模块（静态路径 export / calendar 优先于 :id 匹配）
		assignments := api.Group("/assignments")
		{
			assignments.GET("", h.Assignment.ListAssignments)
			assignments.GET("/export", h.Export.ExportXLSX)
			assignments.GET("/calendar", h.Export.ExportICS)
			assignments.GET("/:id", h.Assignment.GetAssignment)
			assignments.POST("", h.Assignment.CreateAssignment)
			assignments.PUT("/:id", h.Assignment.UpdateAssignment)
			assignments.DELETE("/:id", h.Assignment.DeleteAssignment)
		}
	}

	return r
}
