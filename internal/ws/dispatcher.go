package ws

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/chatlink/pkg/logger"
)

// Handler 处理一种入站消息类型。实现方自己负责写响应；
// Handle 在独立 goroutine 里执行，阻塞不影响同连接的后续消息。
type Handler interface {
	Type() string
	Handle(ctx context.Context, c *Client, msg Message)
}

// Dispatcher 消息类型 -> handler 的静态路由表。
// 全部路由在进程启动时显式注册，漏注册的类型在启动日志里立刻可见，
// 不存在运行时扫描。
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher 注册所有 handler。空类型跳过并告警；
// 重复注册后者覆盖前者并告警（通常是接线错误）。
func NewDispatcher(handlers ...Handler) *Dispatcher {
	d := &Dispatcher{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		t := h.Type()
		if t == "" {
			logger.Warn("dispatcher: handler with empty type skipped")
			continue
		}
		if _, dup := d.handlers[t]; dup {
			logger.Warn("dispatcher: duplicate handler overwritten", zap.String("type", t))
		}
		d.handlers[t] = h
	}
	return d
}

// Dispatch 路由一条已解码消息。未知类型记日志丢弃，不断开连接。
func (d *Dispatcher) Dispatch(ctx context.Context, c *Client, msg Message) {
	h, ok := d.handlers[msg.MessageType()]
	if !ok {
		logger.Warn("dispatcher: no handler", zap.String("type", msg.MessageType()))
		return
	}
	h.Handle(ctx, c, msg)
}

// Registered 已注册的类型数；启动自检用
func (d *Dispatcher) Registered() int { return len(d.handlers) }
