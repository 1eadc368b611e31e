package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/session"
	"github.com/d60-Lab/chatlink/pkg/logger"
)

const (
	// readLimit 单帧入站消息的字节上限
	readLimit = 64 << 10
	// readWait KEEP_ALIVE 的宽限期；超过没有任何入站帧就判定连接死亡
	readWait = 90 * time.Second
)

// Client 一条已认证 websocket 连接的读循环与生命周期。
// 注册表里存的是 *Peer（写侧）；Client 自己持有读侧。
type Client struct {
	peer       *Peer
	userID     domain.UserID
	registry   *session.Registry
	dispatcher *Dispatcher
	limiter    *rate.Limiter
}

func NewClient(conn *websocket.Conn, userID domain.UserID, registry *session.Registry,
	dispatcher *Dispatcher, msgRate float64, msgBurst int) *Client {
	if msgRate <= 0 {
		msgRate = 20
	}
	if msgBurst <= 0 {
		msgBurst = 40
	}
	return &Client{
		peer:       NewPeer(conn),
		userID:     userID,
		registry:   registry,
		dispatcher: dispatcher,
		limiter:    rate.NewLimiter(rate.Limit(msgRate), msgBurst),
	}
}

func (c *Client) UserID() domain.UserID { return c.userID }

// Send 写一帧出站消息；失败只记日志（连接快死了，读循环马上会退出）
func (c *Client) Send(v any) {
	if err := c.peer.Send(v); err != nil {
		logger.Warn("ws send failed", zap.Int64("user", c.userID.Int64()), zap.Error(err))
	}
}

// SendError 统一的失败帧：带原请求类型与文案
func (c *Client) SendError(requestType, message string) {
	c.Send(NewErrorResponse(requestType, message))
}

// Run 注册会话并驱动读循环；连接断开或读错误时返回。
// 同一用户的第二次登录会在 Register 里把旧连接关掉（旧读循环随即报错退出，
// Release 按句柄比对，不会误删新会话）。
func (c *Client) Run(ctx context.Context) {
	c.registry.Register(c.userID, c.peer)
	defer func() {
		c.registry.Release(c.userID, c.peer)
		_ = c.peer.Close()
	}()

	c.peer.conn.SetReadLimit(readLimit)

	for {
		_ = c.peer.conn.SetReadDeadline(time.Now().Add(readWait))
		_, payload, err := c.peer.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("ws read failed", zap.Int64("user", c.userID.Int64()), zap.Error(err))
			}
			return
		}

		if !c.limiter.Allow() {
			logger.Warn("ws message rate exceeded, frame dropped", zap.Int64("user", c.userID.Int64()))
			continue
		}

		msg, err := Decode(payload)
		if err != nil {
			// 格式错误不致断连；客户端 bug 不应该把自己踢下线
			logger.Warn("ws decode failed", zap.Int64("user", c.userID.Int64()), zap.Error(err))
			continue
		}

		// 每条消息独立 goroutine：一个慢 handler（DB 事务等）不会阻塞
		// 同连接的 KEEP_ALIVE
		go c.handle(ctx, msg)
	}
}

func (c *Client) handle(ctx context.Context, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panic",
				zap.String("type", msg.MessageType()),
				zap.Int64("user", c.userID.Int64()),
				zap.Any("panic", r))
			c.SendError(msg.MessageType(), domain.ResultFailed.Message())
		}
	}()
	c.dispatcher.Dispatch(ctx, c, msg)
}
