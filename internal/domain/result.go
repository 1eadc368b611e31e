package domain

// ResultType 业务结果码；跨组件传递结果而不是异常
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailed
	ResultInvalidArgs
	ResultNotFound
	ResultAlreadyJoined
	ResultOverLimit
	ResultNotJoined
	ResultNotAllowed
)

var resultMessages = map[ResultType]string{
	ResultSuccess:       "Success.",
	ResultFailed:        "Failed.",
	ResultInvalidArgs:   "Invalid arguments.",
	ResultNotFound:      "Not found.",
	ResultAlreadyJoined: "Already joined.",
	ResultOverLimit:     "Over limit.",
	ResultNotJoined:     "Not joined.",
	ResultNotAllowed:    "Unconnected users included.",
}

// Message display 用文案（日志/客户端）
func (r ResultType) Message() string {
	if m, ok := resultMessages[r]; ok {
		return m
	}
	return "Failed."
}

// ConnectionStatus 两个用户之间的连接状态。没有行记录即 NONE。
type ConnectionStatus string

const (
	ConnectionNone         ConnectionStatus = "NONE"
	ConnectionPending      ConnectionStatus = "PENDING"
	ConnectionAccepted     ConnectionStatus = "ACCEPTED"
	ConnectionRejected     ConnectionStatus = "REJECTED"
	ConnectionDisconnected ConnectionStatus = "DISCONNECTED"
)
