package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"jam-radar/backend/config"
	"jam-radar/backend/internal/api/handler"
	"jam-radar/backend/internal/api/middleware"
	"jam-radar/backend/internal/model"
	"jam-radar/backend/pkg/jwt"
	"jam-radar/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：此时跳过 Token 黑名单检查与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 显式使用接口零值，避免 nil 指针被包装成非 nil 接口
	var (
		checker middleware.TokenChecker
		limiter middleware.RateLimiter
	)
	if rdb != nil {
		checker, limiter = rdb, rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查与指标 ──
	r.GET("/health", healthCheck(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authLimit := middleware.RateLimit(limiter, cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth", authLimit)
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/admin/login", h.Auth.AdminLogin)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, checker))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 用户：个人资料对所有登录用户开放，其余为管理员
			users := authorized.Group("/users")
			{
				users.GET("/profile", h.User.GetProfile)
				users.PUT("/profile", h.User.UpdateProfile)
				users.GET("/public", h.User.ListPublicUsers)

				users.GET("", adminOnly, h.User.ListUsers)
				users.POST("", adminOnly, h.User.CreateUser)
				users.GET("/:id", adminOnly, h.User.GetUser)
				users.PUT("/:id", adminOnly, h.User.UpdateUser)
				users.PUT("/:id/role", adminOnly, h.User.AssignRole)
				users.DELETE("/:id", adminOnly, h.User.DeleteUser)
			}

			// 拥堵上报
			jamPosts := authorized.Group("/jam-posts")
			{
				jamPosts.GET("", h.JamPost.ListJamPosts)
				jamPosts.POST("", h.JamPost.CreateJamPost)
				jamPosts.GET("/admin", adminOnly, h.JamPost.AdminListJamPosts)
				jamPosts.GET("/admin/stats", adminOnly, h.JamPost.GetStats)
				jamPosts.GET("/admin/export", adminOnly, h.Export.ExportJamPosts)
				jamPosts.GET("/:id", h.JamPost.GetJamPost)
				jamPosts.PUT("/:id", h.JamPost.UpdateJamPost) // 作者或管理员（Service 层鉴权）
				jamPosts.DELETE("/:id", h.JamPost.DeleteJamPost)

				// 评论
				jamPosts.GET("/:id/comments", h.Comment.ListComments)
				jamPosts.POST("/:id/comments", h.Comment.CreateComment)

				// 反应
				jamPosts.GET("/:id/reactions", h.Reaction.GetReactions)
				jamPosts.POST("/:id/reactions", h.Reaction.React)
				jamPosts.DELETE("/:id/reactions", h.Reaction.RemoveReaction)
			}

			comments := authorized.Group("/comments")
			{
				comments.PUT("/:id", h.Comment.UpdateComment)
				comments.DELETE("/:id", h.Comment.DeleteComment)
			}

			// 会话与消息（参与者或管理员，Service 层鉴权）
			conversations := authorized.Group("/conversations")
			{
				conversations.GET("", h.Conversation.ListConversations)
				conversations.POST("", h.Conversation.CreateConversation)
				conversations.GET("/:id", h.Conversation.GetConversation)
				conversations.PUT("/:id", adminOnly, h.Conversation.UpdateConversation)
				conversations.DELETE("/:id", h.Conversation.DeleteConversation)
				conversations.GET("/:id/messages", h.Conversation.ListMessages)
				conversations.POST("/:id/messages", h.Conversation.SendMessage)
			}

			messages := authorized.Group("/messages")
			{
				messages.PUT("/:id", h.Conversation.UpdateMessage)
				messages.DELETE("/:id", h.Conversation.DeleteMessage)
			}

			// 通知（仅本人）
			notifications := authorized.Group("/notifications")
			{
				notifications.POST("", h.Notification.CreateNotification)
				notifications.POST("/nearby-jam", h.Notification.CreateNearbyJam)
				notifications.GET("", h.Notification.ListNotifications)
				notifications.GET("/count", h.Notification.UnreadCount)
				notifications.GET("/unread", h.Notification.ListUnread)
				notifications.GET("/type/:type", h.Notification.ListByType)
				notifications.PATCH("/read-all", h.Notification.MarkAllRead)
				notifications.GET("/:id", h.Notification.GetNotification)
				notifications.PUT("/:id", h.Notification.UpdateNotification)
				notifications.PATCH("/:id/read", h.Notification.MarkRead)
				notifications.DELETE("/:id", h.Notification.DeleteNotification)
			}
		}
	}

	return r
}

// healthCheck 数据库不可达时返回 503
func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				err = sqlDB.PingContext(ctx)
				cancel()
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
