package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/pkg/logger"
)

// Peer 注册表里保存的传输句柄；实际实现是 ws.Peer
type Peer interface {
	// Send marshals and pushes one outbound frame; safe for concurrent use.
	Send(v any) error
	Close() error
}

// Registry "哪个在线连接属于哪个用户"的唯一事实来源。
// 其他组件不直接持有传输句柄，所有访问都经过 Register/Lookup/Remove。
type Registry struct {
	mu    sync.RWMutex
	peers map[domain.UserID]Peer
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[domain.UserID]Peer)}
}

// Register stores the peer for userID. A second login under the same user
// closes the previous handle before replacing it (last login wins), so a stale
// connection can never receive deliveries meant for the new one.
func (r *Registry) Register(userID domain.UserID, peer Peer) {
	r.mu.Lock()
	prev := r.peers[userID]
	r.peers[userID] = peer
	r.mu.Unlock()

	if prev != nil && prev != peer {
		logger.Info("replacing live session", zap.Int64("user", userID.Int64()))
		if err := prev.Close(); err != nil {
			logger.Warn("close stale session failed", zap.Int64("user", userID.Int64()), zap.Error(err))
		}
	}
}

func (r *Registry) Lookup(userID domain.UserID) (Peer, bool) {
	r.mu.RLock()
	p, ok := r.peers[userID]
	r.mu.RUnlock()
	return p, ok
}

// All returns a point-in-time snapshot; may race with concurrent
// register/remove and callers must tolerate slightly stale membership.
func (r *Registry) All() []Peer {
	r.mu.RLock()
	out := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	r.mu.RUnlock()
	return out
}

// Remove closes and drops the peer; calling twice is a no-op. Transport close
// failures are logged, never propagated.
func (r *Registry) Remove(userID domain.UserID) {
	r.mu.Lock()
	p, ok := r.peers[userID]
	delete(r.peers, userID)
	r.mu.Unlock()

	if !ok {
		return
	}
	if err := p.Close(); err != nil {
		logger.Warn("close session failed", zap.Int64("user", userID.Int64()), zap.Error(err))
	}
}

// Release drops userID only if the stored handle is still peer. The read loop
// calls this on exit; after a close-then-replace the entry already belongs to
// the newer login and must not be touched.
func (r *Registry) Release(userID domain.UserID, peer Peer) {
	r.mu.Lock()
	if r.peers[userID] == peer {
		delete(r.peers, userID)
	}
	r.mu.Unlock()
}

// Len 当前在线会话数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
