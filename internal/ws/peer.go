package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Peer 单条 websocket 连接的写侧封装。gorilla 的连接同一时刻只允许一个
// writer，这里用互斥锁把并发的 Send 串行化（扇出工作池和读循环都会写）。
type Peer struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewPeer(conn *websocket.Conn) *Peer {
	return &Peer{conn: conn}
}

// Send marshals v and writes one text frame with a write deadline. Safe for
// concurrent use.
func (p *Peer) Send(v any) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(v)
}

// Close 幂等关闭：先尽力发 close 控制帧，再关底层连接。
// 重复调用返回第一次的错误。
func (p *Peer) Close() error {
	p.closeOnce.Do(func() {
		p.writeMu.Lock()
		_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = p.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		p.writeMu.Unlock()

		p.closeErr = p.conn.Close()
	})
	return p.closeErr
}
