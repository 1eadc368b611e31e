package ws

// Message 已解码的入站消息；MessageType 是分发键
type Message interface {
	MessageType() string
}

type FetchUserInviteCodeRequest struct{}

func (FetchUserInviteCodeRequest) MessageType() string { return TypeFetchUserInviteCodeRequest }

type FetchChannelInviteCodeRequest struct {
	ChannelID int64 `json:"channelId"`
}

func (FetchChannelInviteCodeRequest) MessageType() string { return TypeFetchChannelInviteCodeRequest }

type FetchChannelsListRequest struct{}

func (FetchChannelsListRequest) MessageType() string { return TypeFetchChannelsListRequest }

type FetchConnectionsRequest struct {
	Status string `json:"status"`
}

func (FetchConnectionsRequest) MessageType() string { return TypeFetchConnectionsRequest }

type InviteRequest struct {
	UserInviteCode string `json:"userInviteCode"`
}

func (InviteRequest) MessageType() string { return TypeInviteRequest }

type AcceptRequest struct {
	Username string `json:"username"`
}

func (AcceptRequest) MessageType() string { return TypeAcceptRequest }

type RejectRequest struct {
	Username string `json:"username"`
}

func (RejectRequest) MessageType() string { return TypeRejectRequest }

type DisconnectRequest struct {
	Username string `json:"username"`
}

func (DisconnectRequest) MessageType() string { return TypeDisconnectRequest }

type CreateRequest struct {
	Title                string   `json:"title"`
	ParticipantUsernames []string `json:"participantUsernames"`
}

func (CreateRequest) MessageType() string { return TypeCreateRequest }

type JoinRequest struct {
	InviteCode string `json:"inviteCode"`
}

func (JoinRequest) MessageType() string { return TypeJoinRequest }

type EnterRequest struct {
	ChannelID int64 `json:"channelId"`
}

func (EnterRequest) MessageType() string { return TypeEnterRequest }

type LeaveRequest struct {
	ChannelID int64 `json:"channelId"`
}

func (LeaveRequest) MessageType() string { return TypeLeaveRequest }

type QuitRequest struct {
	ChannelID int64 `json:"channelId"`
}

func (QuitRequest) MessageType() string { return TypeQuitRequest }

type WriteMessage struct {
	ChannelID int64  `json:"channelId"`
	Content   string `json:"content"`
}

func (WriteMessage) MessageType() string { return TypeWriteMessage }

type KeepAlive struct{}

func (KeepAlive) MessageType() string { return TypeKeepAlive }
