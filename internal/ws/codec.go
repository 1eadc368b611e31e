package ws

import (
	"encoding/json"
	"fmt"
)

// 入站解码表：type 字符串 -> 具体消息的构造
var decoders = map[string]func(json.RawMessage) (Message, error){
	TypeFetchUserInviteCodeRequest:    decodeInto[FetchUserInviteCodeRequest],
	TypeFetchChannelInviteCodeRequest: decodeInto[FetchChannelInviteCodeRequest],
	TypeFetchChannelsListRequest:      decodeInto[FetchChannelsListRequest],
	TypeFetchConnectionsRequest:       decodeInto[FetchConnectionsRequest],
	TypeInviteRequest:                 decodeInto[InviteRequest],
	TypeAcceptRequest:                 decodeInto[AcceptRequest],
	TypeRejectRequest:                 decodeInto[RejectRequest],
	TypeDisconnectRequest:             decodeInto[DisconnectRequest],
	TypeCreateRequest:                 decodeInto[CreateRequest],
	TypeJoinRequest:                   decodeInto[JoinRequest],
	TypeEnterRequest:                  decodeInto[EnterRequest],
	TypeLeaveRequest:                  decodeInto[LeaveRequest],
	TypeQuitRequest:                   decodeInto[QuitRequest],
	TypeWriteMessage:                  decodeInto[WriteMessage],
	TypeKeepAlive:                     decodeInto[KeepAlive],
}

func decodeInto[T Message](raw json.RawMessage) (Message, error) {
	var msg T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// Decode 解析一帧入站 JSON：先读 type 判别字段，再按类型解码剩余字段。
// 未知 type 返回错误，由调用方记日志后丢弃（不断开连接）。
func Decode(payload []byte) (Message, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	dec, ok := decoders[head.Type]
	if !ok {
		return nil, fmt.Errorf("unknown message type %q", head.Type)
	}
	return dec(payload)
}
