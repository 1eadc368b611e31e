package handlers

import (
	"github.com/d60-Lab/chatlink/internal/service"
	"github.com/d60-Lab/chatlink/internal/session"
	"github.com/d60-Lab/chatlink/internal/ws"
)

// Deps handler 共享的依赖集合
type Deps struct {
	Registry    *session.Registry
	Users       service.UserService
	Connections service.ConnectionService
	Channels    service.ChannelService
	Messages    service.MessageService
	Presence    service.PresenceService
}

// All 返回全部 handler 的显式清单；路由表在这里一目了然，
// 新增消息类型必须同时在此登记。
func All(d Deps) []ws.Handler {
	return []ws.Handler{
		&fetchUserInviteCodeHandler{d},
		&fetchChannelInviteCodeHandler{d},
		&fetchChannelsListHandler{d},
		&fetchConnectionsHandler{d},
		&inviteHandler{d},
		&acceptHandler{d},
		&rejectHandler{d},
		&disconnectHandler{d},
		&createHandler{d},
		&joinHandler{d},
		&enterHandler{d},
		&leaveHandler{d},
		&quitHandler{d},
		&writeMessageHandler{d},
		&keepAliveHandler{d},
	}
}
