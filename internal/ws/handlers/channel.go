package handlers

import (
	"context"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/ws"
)

// createHandler 建群。参与者用用户名点名，必须全部与创建者 ACCEPTED；
// 在线的参与者实时收到 NOTIFY_JOIN。
type createHandler struct{ deps Deps }

func (h *createHandler) Type() string { return ws.TypeCreateRequest }

func (h *createHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.CreateRequest)
	if req.Title == "" {
		c.SendError(ws.TypeCreateRequest, domain.ResultInvalidArgs.Message())
		return
	}

	participantIDs, err := h.deps.Users.ResolveUsernames(ctx, req.ParticipantUsernames)
	if err != nil {
		c.SendError(ws.TypeCreateRequest, err.Error())
		return
	}

	info, result := h.deps.Channels.Create(ctx, c.UserID(), participantIDs, req.Title)
	if result != domain.ResultSuccess {
		c.SendError(ws.TypeCreateRequest, result.Message())
		return
	}

	c.Send(ws.NewCreateResponse(info.ChannelID.Int64(), info.Title))
	for _, pid := range participantIDs {
		if peer, ok := h.deps.Registry.Lookup(pid); ok {
			_ = peer.Send(ws.NewNotifyJoin(info.ChannelID.Int64(), info.Title))
		}
	}
}

type joinHandler struct{ deps Deps }

func (h *joinHandler) Type() string { return ws.TypeJoinRequest }

func (h *joinHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.JoinRequest)
	code, err := domain.NewInviteCode(req.InviteCode)
	if err != nil {
		c.SendError(ws.TypeJoinRequest, domain.ResultInvalidArgs.Message())
		return
	}

	info, result := h.deps.Channels.Join(ctx, code, c.UserID())
	if result != domain.ResultSuccess {
		c.SendError(ws.TypeJoinRequest, result.Message())
		return
	}
	c.Send(ws.NewJoinResponse(info.ChannelID.Int64(), info.Title))
}

type enterHandler struct{ deps Deps }

func (h *enterHandler) Type() string { return ws.TypeEnterRequest }

func (h *enterHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.EnterRequest)
	channelID, err := domain.NewChannelID(req.ChannelID)
	if err != nil {
		c.SendError(ws.TypeEnterRequest, domain.ResultInvalidArgs.Message())
		return
	}

	title, result := h.deps.Channels.Enter(ctx, channelID, c.UserID())
	if result != domain.ResultSuccess {
		c.SendError(ws.TypeEnterRequest, result.Message())
		return
	}
	c.Send(ws.NewEnterResponse(channelID.Int64(), title))
}

type leaveHandler struct{ deps Deps }

func (h *leaveHandler) Type() string { return ws.TypeLeaveRequest }

func (h *leaveHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.LeaveRequest)
	channelID, err := domain.NewChannelID(req.ChannelID)
	if err != nil {
		c.SendError(ws.TypeLeaveRequest, domain.ResultInvalidArgs.Message())
		return
	}

	if result := h.deps.Channels.Leave(ctx, channelID, c.UserID()); result != domain.ResultSuccess {
		c.SendError(ws.TypeLeaveRequest, result.Message())
		return
	}
	c.Send(ws.NewLeaveResponse(channelID.Int64()))
}

type quitHandler struct{ deps Deps }

func (h *quitHandler) Type() string { return ws.TypeQuitRequest }

func (h *quitHandler) Handle(ctx context.Context, c *ws.Client, msg ws.Message) {
	req := msg.(ws.QuitRequest)
	channelID, err := domain.NewChannelID(req.ChannelID)
	if err != nil {
		c.SendError(ws.TypeQuitRequest, domain.ResultInvalidArgs.Message())
		return
	}

	if result := h.deps.Channels.Quit(ctx, channelID, c.UserID()); result != domain.ResultSuccess {
		c.SendError(ws.TypeQuitRequest, result.Message())
		return
	}
	c.Send(ws.NewQuitResponse(channelID.Int64()))
}
