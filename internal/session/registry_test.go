package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/chatlink/internal/domain"
)

type fakePeer struct {
	mu     sync.Mutex
	closed int
}

func (p *fakePeer) Send(any) error { return nil }

func (p *fakePeer) Close() error {
	p.mu.Lock()
	p.closed++
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) closeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	p := &fakePeer{}
	r.Register(1, p)

	got, ok := r.Lookup(1)
	require.True(t, ok)
	require.Same(t, p, got.(*fakePeer))

	_, ok = r.Lookup(2)
	require.False(t, ok)
	require.Equal(t, 1, r.Len())
}

func TestSecondLoginClosesPrevious(t *testing.T) {
	r := NewRegistry()
	old := &fakePeer{}
	fresh := &fakePeer{}
	r.Register(1, old)
	r.Register(1, fresh)

	require.Equal(t, 1, old.closeCount())
	require.Equal(t, 0, fresh.closeCount())

	got, ok := r.Lookup(1)
	require.True(t, ok)
	require.Same(t, fresh, got.(*fakePeer))
	require.Equal(t, 1, r.Len())
}

func TestRemoveClosesAndIsIdempotent(t *testing.T) {
	r := NewRegistry()
	p := &fakePeer{}
	r.Register(1, p)

	r.Remove(1)
	require.Equal(t, 1, p.closeCount())
	_, ok := r.Lookup(1)
	require.False(t, ok)

	r.Remove(1)
	require.Equal(t, 1, p.closeCount())
}

func TestReleaseOnlyDropsOwnPeer(t *testing.T) {
	r := NewRegistry()
	old := &fakePeer{}
	fresh := &fakePeer{}
	r.Register(1, old)
	r.Register(1, fresh)

	// 旧连接的读循环退场：不能动新登录的会话
	r.Release(1, old)
	got, ok := r.Lookup(1)
	require.True(t, ok)
	require.Same(t, fresh, got.(*fakePeer))

	r.Release(1, fresh)
	_, ok = r.Lookup(1)
	require.False(t, ok)
	// Release 不负责 Close；关闭由读循环自己做
	require.Equal(t, 0, fresh.closeCount())
}

func TestAllSnapshot(t *testing.T) {
	r := NewRegistry()
	for i := 1; i <= 3; i++ {
		r.Register(domain.UserID(i), &fakePeer{})
	}
	require.Len(t, r.All(), 3)
}
