package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/d60-Lab/chatlink/internal/ws"
	"github.com/d60-Lab/chatlink/pkg/logger"
	"github.com/d60-Lab/chatlink/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   4096,
	WriteBufferSize:  4096,
	HandshakeTimeout: 10 * time.Second,
	// 客户端是原生应用，不做 Origin 白名单
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS websocket 握手：?token= 校验通过才升级；
// 升级失败由 gorilla 自己写 HTTP 错误响应。
func (h *Handler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Unauthorized(c, "token required")
		return
	}

	userID, err := h.auth.VerifyToken(token)
	if err != nil {
		response.Unauthorized(c, "invalid token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", zap.Int64("user", userID.Int64()), zap.Error(err))
		return
	}

	logger.Info("ws session opened", zap.Int64("user", userID.Int64()))
	client := ws.NewClient(conn, userID, h.registry, h.dispatcher, h.msgRate, h.msgBurst)
	// 读循环占住这个 gin handler goroutine 直到连接断开
	client.Run(c.Request.Context())
	logger.Info("ws session closed", zap.Int64("user", userID.Int64()))
}
