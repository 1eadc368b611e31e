package handler

import (
	"github.com/d60-Lab/chatlink/internal/auth"
	"github.com/d60-Lab/chatlink/internal/session"
	"github.com/d60-Lab/chatlink/internal/ws"
)

// Handler HTTP 入口的依赖集合：REST（注册/登录）+ websocket 升级
type Handler struct {
	auth       auth.Service
	registry   *session.Registry
	dispatcher *ws.Dispatcher
	msgRate    float64
	msgBurst   int
}

func New(authSvc auth.Service, registry *session.Registry, dispatcher *ws.Dispatcher,
	msgRate float64, msgBurst int) *Handler {
	return &Handler{
		auth:       authSvc,
		registry:   registry,
		dispatcher: dispatcher,
		msgRate:    msgRate,
		msgBurst:   msgBurst,
	}
}
