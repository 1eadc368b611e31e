package api

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/chatlink/internal/api/handler"
)

// NewRouter REST 只承担入口职责（注册/登录/健康检查）；
// 业务操作全部走 /ws 之后的消息协议。
func NewRouter(h *handler.Handler, mode string) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/users", h.Register)
		v1.POST("/auth/login", h.Login)
	}

	r.GET("/ws", h.ServeWS)
	return r
}
