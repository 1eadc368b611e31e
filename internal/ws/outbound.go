package ws

// 出站帧都带 type 字段；失败统一走 ErrorResponse，
// 并回带原请求的 type 方便客户端关联。

type FetchUserInviteCodeResponse struct {
	Type       string `json:"type"`
	InviteCode string `json:"inviteCode"`
}

func NewFetchUserInviteCodeResponse(code string) FetchUserInviteCodeResponse {
	return FetchUserInviteCodeResponse{Type: TypeFetchUserInviteCodeResponse, InviteCode: code}
}

type FetchChannelInviteCodeResponse struct {
	Type       string `json:"type"`
	ChannelID  int64  `json:"channelId"`
	InviteCode string `json:"inviteCode"`
}

func NewFetchChannelInviteCodeResponse(channelID int64, code string) FetchChannelInviteCodeResponse {
	return FetchChannelInviteCodeResponse{Type: TypeFetchChannelInviteCodeResponse, ChannelID: channelID, InviteCode: code}
}

type ChannelSummary struct {
	ChannelID int64  `json:"channelId"`
	Title     string `json:"title"`
	HeadCount int    `json:"headCount"`
}

type FetchChannelsListResponse struct {
	Type     string           `json:"type"`
	Channels []ChannelSummary `json:"channels"`
}

func NewFetchChannelsListResponse(channels []ChannelSummary) FetchChannelsListResponse {
	return FetchChannelsListResponse{Type: TypeFetchChannelsListResponse, Channels: channels}
}

type ConnectionEntry struct {
	Username string `json:"username"`
	Status   string `json:"status"`
}

type FetchConnectionsResponse struct {
	Type        string            `json:"type"`
	Connections []ConnectionEntry `json:"connections"`
}

func NewFetchConnectionsResponse(connections []ConnectionEntry) FetchConnectionsResponse {
	return FetchConnectionsResponse{Type: TypeFetchConnectionsResponse, Connections: connections}
}

type InviteResponse struct {
	Type           string `json:"type"`
	UserInviteCode string `json:"userInviteCode"`
}

func NewInviteResponse(code string) InviteResponse {
	return InviteResponse{Type: TypeInviteResponse, UserInviteCode: code}
}

// AskInvite "有人邀请你"通知
type AskInvite struct {
	Type            string `json:"type"`
	InviterUsername string `json:"inviterUsername"`
}

func NewAskInvite(inviterUsername string) AskInvite {
	return AskInvite{Type: TypeAskInvite, InviterUsername: inviterUsername}
}

type AcceptResponse struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

func NewAcceptResponse(username string) AcceptResponse {
	return AcceptResponse{Type: TypeAcceptResponse, Username: username}
}

// NotifyAccept "你的邀请被接受了"通知
type NotifyAccept struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

func NewNotifyAccept(acceptorUsername string) NotifyAccept {
	return NotifyAccept{Type: TypeNotifyAccept, Username: acceptorUsername}
}

// reject/disconnect 只回给请求方，对端无需感知
type RejectResponse struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

func NewRejectResponse(username string) RejectResponse {
	return RejectResponse{Type: TypeRejectResponse, Username: username}
}

type DisconnectResponse struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

func NewDisconnectResponse(username string) DisconnectResponse {
	return DisconnectResponse{Type: TypeDisconnectResponse, Username: username}
}

type CreateResponse struct {
	Type      string `json:"type"`
	ChannelID int64  `json:"channelId"`
	Title     string `json:"title"`
}

func NewCreateResponse(channelID int64, title string) CreateResponse {
	return CreateResponse{Type: TypeCreateResponse, ChannelID: channelID, Title: title}
}

type JoinResponse struct {
	Type      string `json:"type"`
	ChannelID int64  `json:"channelId"`
	Title     string `json:"title"`
}

func NewJoinResponse(channelID int64, title string) JoinResponse {
	return JoinResponse{Type: TypeJoinResponse, ChannelID: channelID, Title: title}
}

// NotifyJoin 被别人拉进频道时的通知
type NotifyJoin struct {
	Type      string `json:"type"`
	ChannelID int64  `json:"channelId"`
	Title     string `json:"title"`
}

func NewNotifyJoin(channelID int64, title string) NotifyJoin {
	return NotifyJoin{Type: TypeNotifyJoin, ChannelID: channelID, Title: title}
}

type EnterResponse struct {
	Type      string `json:"type"`
	ChannelID int64  `json:"channelId"`
	Title     string `json:"title"`
}

func NewEnterResponse(channelID int64, title string) EnterResponse {
	return EnterResponse{Type: TypeEnterResponse, ChannelID: channelID, Title: title}
}

type LeaveResponse struct {
	Type      string `json:"type"`
	ChannelID int64  `json:"channelId"`
}

func NewLeaveResponse(channelID int64) LeaveResponse {
	return LeaveResponse{Type: TypeLeaveResponse, ChannelID: channelID}
}

type QuitResponse struct {
	Type      string `json:"type"`
	ChannelID int64  `json:"channelId"`
}

func NewQuitResponse(channelID int64) QuitResponse {
	return QuitResponse{Type: TypeQuitResponse, ChannelID: channelID}
}

// NotifyMessage 实时消息推送；只发给此刻正看着该频道的成员
type NotifyMessage struct {
	Type      string `json:"type"`
	ChannelID int64  `json:"channelId"`
	Username  string `json:"username"`
	Content   string `json:"content"`
}

func NewNotifyMessage(channelID int64, username, content string) NotifyMessage {
	return NotifyMessage{Type: TypeNotifyMessage, ChannelID: channelID, Username: username, Content: content}
}

// ErrorResponse 带原请求 type 的失败响应
type ErrorResponse struct {
	Type        string `json:"type"`
	MessageType string `json:"messageType"`
	Message     string `json:"message"`
}

func NewErrorResponse(requestType, message string) ErrorResponse {
	return ErrorResponse{Type: TypeError, MessageType: requestType, Message: message}
}
