package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/ws"
	"github.com/d60-Lab/chatlink/pkg/logger"
)

type fetchUserInviteCodeHandler struct{ deps Deps }

func (h *fetchUserInviteCodeHandler) Type() string { return ws.TypeFetchUserInviteCodeRequest }

func (h *fetchUserInviteCodeHandler) Handle(ctx context.Context, c *ws.Client, _ ws.Message) {
	code, err := h.deps.Users.InviteCode(ctx, c.UserID())
	if err != nil {
		logger.Error("fetch user invite code failed", zap.Int64("user", c.UserID().Int64()), zap.Error(err))
		c.SendError(ws.TypeFetchUserInviteCodeRequest, domain.ResultFailed.Message())
		return
	}
	c.Send(ws.NewFetchUserInviteCodeResponse(code))
}

type fetchChannelInviteCodeHandler struct{ deps Deps }

func (h *fetchChannelInviteCodeHandler) Type() string { return ws.TypeFetchChannelInviteCodeRequest }

func (h *fetchChannelInviteCodeHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.FetchChannelInviteCodeRequest)
	channelID, err := domain.NewChannelID(req.ChannelID)
	if err != nil {
		c.SendError(ws.TypeFetchChannelInviteCodeRequest, domain.ResultInvalidArgs.Message())
		return
	}

	code, result := h.deps.Channels.InviteCode(ctx, channelID, c.UserID())
	if result != domain.ResultSuccess {
		c.SendError(ws.TypeFetchChannelInviteCodeRequest, result.Message())
		return
	}
	c.Send(ws.NewFetchChannelInviteCodeResponse(channelID.Int64(), code.String()))
}

type fetchChannelsListHandler struct{ deps Deps }

func (h *fetchChannelsListHandler) Type() string { return ws.TypeFetchChannelsListRequest }

func (h *fetchChannelsListHandler) Handle(ctx context.Context, c *ws.Client, _ ws.Message) {
	channels, err := h.deps.Channels.ChannelsList(ctx, c.UserID())
	if err != nil {
		logger.Error("fetch channels list failed", zap.Int64("user", c.UserID().Int64()), zap.Error(err))
		c.SendError(ws.TypeFetchChannelsListRequest, domain.ResultFailed.Message())
		return
	}

	summaries := make([]ws.ChannelSummary, 0, len(channels))
	for _, ch := range channels {
		summaries = append(summaries, ws.ChannelSummary{
			ChannelID: ch.ChannelID,
			Title:     ch.Title,
			HeadCount: ch.HeadCount,
		})
	}
	c.Send(ws.NewFetchChannelsListResponse(summaries))
}

type fetchConnectionsHandler struct{ deps Deps }

func (h *fetchConnectionsHandler) Type() string { return ws.TypeFetchConnectionsRequest }

func (h *fetchConnectionsHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.FetchConnectionsRequest)

	status := domain.ConnectionStatus(req.Status)
	switch status {
	case domain.ConnectionPending, domain.ConnectionAccepted,
		domain.ConnectionRejected, domain.ConnectionDisconnected:
	case "":
		status = domain.ConnectionAccepted
	default:
		c.SendError(ws.TypeFetchConnectionsRequest, domain.ResultInvalidArgs.Message())
		return
	}

	partners, err := h.deps.Connections.ConnectionsByStatus(ctx, c.UserID(), status)
	if err != nil {
		logger.Error("fetch connections failed", zap.Int64("user", c.UserID().Int64()), zap.Error(err))
		c.SendError(ws.TypeFetchConnectionsRequest, domain.ResultFailed.Message())
		return
	}

	entries := make([]ws.ConnectionEntry, 0, len(partners))
	for _, p := range partners {
		entries = append(entries, ws.ConnectionEntry{Username: p.Username, Status: string(status)})
	}
	c.Send(ws.NewFetchConnectionsResponse(entries))
}

// keepAliveHandler 续 presence TTL；不回任何帧
type keepAliveHandler struct{ deps Deps }

func (h *keepAliveHandler) Type() string { return ws.TypeKeepAlive }

func (h *keepAliveHandler) Handle(ctx context.Context, c *ws.Client, _ ws.Message) {
	h.deps.Presence.Refresh(ctx, c.UserID())
}
