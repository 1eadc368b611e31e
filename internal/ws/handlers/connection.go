package handlers

import (
	"context"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/ws"
)

// inviteHandler 邀请方凭对方的个人邀请码发起连接。
// 响应回给邀请方；被邀请方在线时实时收到 ASK_INVITE，
// 离线的话下次 FETCH_CONNECTIONS(PENDING) 也能看到。
type inviteHandler struct{ deps Deps }

func (h *inviteHandler) Type() string { return ws.TypeInviteRequest }

func (h *inviteHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.InviteRequest)
	code, err := domain.NewInviteCode(req.UserInviteCode)
	if err != nil {
		c.SendError(ws.TypeInviteRequest, domain.ResultInvalidArgs.Message())
		return
	}

	inviteeID, inviterUsername, err := h.deps.Connections.Invite(ctx, c.UserID(), code)
	if err != nil {
		c.SendError(ws.TypeInviteRequest, err.Error())
		return
	}

	c.Send(ws.NewInviteResponse(code.String()))
	if peer, ok := h.deps.Registry.Lookup(inviteeID); ok {
		_ = peer.Send(ws.NewAskInvite(inviterUsername))
	}
}

type acceptHandler struct{ deps Deps }

func (h *acceptHandler) Type() string { return ws.TypeAcceptRequest }

func (h *acceptHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.AcceptRequest)
	if req.Username == "" {
		c.SendError(ws.TypeAcceptRequest, domain.ResultInvalidArgs.Message())
		return
	}

	inviterID, acceptorUsername, err := h.deps.Connections.Accept(ctx, c.UserID(), req.Username)
	if err != nil {
		c.SendError(ws.TypeAcceptRequest, err.Error())
		return
	}

	c.Send(ws.NewAcceptResponse(req.Username))
	if peer, ok := h.deps.Registry.Lookup(inviterID); ok {
		_ = peer.Send(ws.NewNotifyAccept(acceptorUsername))
	}
}

type rejectHandler struct{ deps Deps }

func (h *rejectHandler) Type() string { return ws.TypeRejectRequest }

func (h *rejectHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.RejectRequest)
	if req.Username == "" {
		c.SendError(ws.TypeRejectRequest, domain.ResultInvalidArgs.Message())
		return
	}

	inviterUsername, err := h.deps.Connections.Reject(ctx, c.UserID(), req.Username)
	if err != nil {
		c.SendError(ws.TypeRejectRequest, err.Error())
		return
	}
	c.Send(ws.NewRejectResponse(inviterUsername))
}

type disconnectHandler struct{ deps Deps }

func (h *disconnectHandler) Type() string { return ws.TypeDisconnectRequest }

func (h *disconnectHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.DisconnectRequest)
	if req.Username == "" {
		c.SendError(ws.TypeDisconnectRequest, domain.ResultInvalidArgs.Message())
		return
	}

	partnerUsername, err := h.deps.Connections.Disconnect(ctx, c.UserID(), req.Username)
	if err != nil {
		c.SendError(ws.TypeDisconnectRequest, err.Error())
		return
	}
	c.Send(ws.NewDisconnectResponse(partnerUsername))
}
