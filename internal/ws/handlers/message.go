package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/ws"
	"github.com/d60-Lab/chatlink/pkg/logger"
)

// writeMessageHandler 发消息：成员校验 -> 落库 -> 扇出给在线成员。
// 投递闭包在扇出工作池里执行，查注册表拿到接收者的传输句柄再写帧；
// 成功时不给发送方回执（客户端本地即时上屏）。
type writeMessageHandler struct{ deps Deps }

func (h *writeMessageHandler) Type() string { return ws.TypeWriteMessage }

func (h *writeMessageHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.WriteMessage)
	channelID, err := domain.NewChannelID(req.ChannelID)
	if err != nil || req.Content == "" {
		c.SendError(ws.TypeWriteMessage, domain.ResultInvalidArgs.Message())
		return
	}

	joined, err := h.deps.Channels.IsJoined(ctx, channelID, c.UserID())
	if err != nil {
		c.SendError(ws.TypeWriteMessage, domain.ResultFailed.Message())
		return
	}
	if !joined {
		c.SendError(ws.TypeWriteMessage, domain.ResultNotJoined.Message())
		return
	}

	senderUsername, err := h.deps.Users.Username(ctx, c.UserID())
	if err != nil {
		c.SendError(ws.TypeWriteMessage, domain.ResultFailed.Message())
		return
	}

	frame := ws.NewNotifyMessage(channelID.Int64(), senderUsername, req.Content)
	err = h.deps.Messages.Send(ctx, c.UserID(), channelID, req.Content, func(recipient domain.UserID) {
		peer, ok := h.deps.Registry.Lookup(recipient)
		if !ok {
			// presence 说在线但会话已没了：TTL 没过期的竞态窗口，丢弃即可
			return
		}
		if err := peer.Send(frame); err != nil {
			logger.Warn("notify message failed",
				zap.Int64("recipient", recipient.Int64()),
				zap.Int64("channel", channelID.Int64()),
				zap.Error(err))
		}
	})
	if err != nil {
		c.SendError(ws.TypeWriteMessage, err.Error())
	}
}
