package ws

// 线上协议的消息类型常量。request/response 成对出现；notification 是
// 服务器主动推送（对端没请求过也会收到）。
const (
	TypeFetchUserInviteCodeRequest  = "FETCH_USER_INVITECODE_REQUEST"
	TypeFetchUserInviteCodeResponse = "FETCH_USER_INVITECODE_RESPONSE"

	TypeFetchChannelInviteCodeRequest  = "FETCH_CHANNEL_INVITECODE_REQUEST"
	TypeFetchChannelInviteCodeResponse = "FETCH_CHANNEL_INVITECODE_RESPONSE"

	TypeFetchChannelsListRequest  = "FETCH_CHANNELS_LIST_REQUEST"
	TypeFetchChannelsListResponse = "FETCH_CHANNELS_LIST_RESPONSE"

	TypeFetchConnectionsRequest  = "FETCH_CONNECTIONS_REQUEST"
	TypeFetchConnectionsResponse = "FETCH_CONNECTIONS_RESPONSE"

	TypeInviteRequest  = "INVITE_REQUEST"
	TypeInviteResponse = "INVITE_RESPONSE"

	TypeAcceptRequest  = "ACCEPT_REQUEST"
	TypeAcceptResponse = "ACCEPT_RESPONSE"

	TypeRejectRequest  = "REJECT_REQUEST"
	TypeRejectResponse = "REJECT_RESPONSE"

	TypeDisconnectRequest  = "DISCONNECT_REQUEST"
	TypeDisconnectResponse = "DISCONNECT_RESPONSE"

	TypeCreateRequest  = "CREATE_REQUEST"
	TypeCreateResponse = "CREATE_RESPONSE"

	TypeJoinRequest  = "JOIN_REQUEST"
	TypeJoinResponse = "JOIN_RESPONSE"

	TypeEnterRequest  = "ENTER_REQUEST"
	TypeEnterResponse = "ENTER_RESPONSE"

	TypeLeaveRequest  = "LEAVE_REQUEST"
	TypeLeaveResponse = "LEAVE_RESPONSE"

	TypeQuitRequest  = "QUIT_REQUEST"
	TypeQuitResponse = "QUIT_RESPONSE"

	TypeWriteMessage = "WRITE_MESSAGE"
	TypeKeepAlive    = "KEEP_ALIVE"

	// server -> client notifications
	TypeAskInvite     = "ASK_INVITE"
	TypeNotifyAccept  = "NOTIFY_ACCEPT"
	TypeNotifyJoin    = "NOTIFY_JOIN"
	TypeNotifyMessage = "NOTIFY_MESSAGE"
	TypeError         = "ERROR"
)
