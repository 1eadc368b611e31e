package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/model"
)

func TestCreateChannel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	env.connect(t, u1, u2)

	info, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "team")
	require.Equal(t, domain.ResultSuccess, result)
	require.Equal(t, "team", info.Title)
	require.Equal(t, 2, info.HeadCount)

	for _, uid := range []domain.UserID{u1, u2} {
		joined, err := env.channels.IsJoined(ctx, info.ChannelID, uid)
		require.NoError(t, err)
		require.True(t, joined)
	}

	code, result := env.channels.InviteCode(ctx, info.ChannelID, u1)
	require.Equal(t, domain.ResultSuccess, result)
	require.NotEmpty(t, code.String())
}

func TestCreateChannelEmptyTitle(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.createUser(t, "alice")

	_, result := env.channels.Create(context.Background(), u1, nil, "")
	require.Equal(t, domain.ResultInvalidArgs, result)
}

func TestCreateChannelRequiresAcceptedParticipants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	u3 := env.createUser(t, "carol")
	env.connect(t, u1, u2)

	// carol 与 alice 之间没有 ACCEPTED 连接
	_, result := env.channels.Create(ctx, u1, []domain.UserID{u2, u3}, "team")
	require.Equal(t, domain.ResultNotAllowed, result)
}

func TestCreateChannelOverHeadLimit(t *testing.T) {
	env := newTestEnv(t, withHeadLimit(2))
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	u3 := env.createUser(t, "carol")
	env.connect(t, u1, u2)
	env.connect(t, u1, u3)

	// 2 参与者 + 创建者 = 3 > 2
	_, result := env.channels.Create(ctx, u1, []domain.UserID{u2, u3}, "team")
	require.Equal(t, domain.ResultOverLimit, result)
}

func TestJoinByInviteCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	u3 := env.createUser(t, "carol")
	env.connect(t, u1, u2)

	info, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "team")
	require.Equal(t, domain.ResultSuccess, result)
	code, result := env.channels.InviteCode(ctx, info.ChannelID, u1)
	require.Equal(t, domain.ResultSuccess, result)

	joinedInfo, result := env.channels.Join(ctx, code, u3)
	require.Equal(t, domain.ResultSuccess, result)
	require.Equal(t, info.ChannelID, joinedInfo.ChannelID)
	require.Equal(t, 3, joinedInfo.HeadCount)

	_, result = env.channels.Join(ctx, code, u3)
	require.Equal(t, domain.ResultAlreadyJoined, result)

	_, result = env.channels.Join(ctx, "no-such-code", u3)
	require.Equal(t, domain.ResultNotFound, result)
}

func TestJoinOverCapacity(t *testing.T) {
	env := newTestEnv(t, withHeadLimit(2))
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	u3 := env.createUser(t, "carol")
	env.connect(t, u1, u2)

	info, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "team")
	require.Equal(t, domain.ResultSuccess, result)
	code, result := env.channels.InviteCode(ctx, info.ChannelID, u1)
	require.Equal(t, domain.ResultSuccess, result)

	_, result = env.channels.Join(ctx, code, u3)
	require.Equal(t, domain.ResultOverLimit, result)
}

func TestConcurrentJoinsAtCapacity(t *testing.T) {
	env := newTestEnv(t, withHeadLimit(3))
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	u3 := env.createUser(t, "carol")
	u4 := env.createUser(t, "dave")
	env.connect(t, u1, u2)

	info, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "team")
	require.Equal(t, domain.ResultSuccess, result)
	code, result := env.channels.InviteCode(ctx, info.ChannelID, u1)
	require.Equal(t, domain.ResultSuccess, result)

	// 只剩最后一个名额，两人同时抢
	results := make([]domain.ResultType, 2)
	var wg sync.WaitGroup
	for i, joiner := range []domain.UserID{u3, u4} {
		wg.Add(1)
		go func(i int, joiner domain.UserID) {
			defer wg.Done()
			_, results[i] = env.channels.Join(ctx, code, joiner)
		}(i, joiner)
	}
	wg.Wait()

	require.ElementsMatch(t,
		[]domain.ResultType{domain.ResultSuccess, domain.ResultOverLimit}, results)

	// head_count 停在上限，且与成员行数一致
	var ch model.Channel
	require.NoError(t, env.db.First(&ch, "channel_id = ?", info.ChannelID.Int64()).Error)
	require.Equal(t, 3, ch.HeadCount)
	var members int64
	require.NoError(t, env.db.Model(&model.UserChannel{}).
		Where("channel_id = ?", info.ChannelID.Int64()).Count(&members).Error)
	require.EqualValues(t, 3, members)
}

func TestEnterRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	u3 := env.createUser(t, "carol")
	env.connect(t, u1, u2)

	info, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "team")
	require.Equal(t, domain.ResultSuccess, result)

	_, result = env.channels.Enter(ctx, info.ChannelID, u3)
	require.Equal(t, domain.ResultNotJoined, result)

	title, result := env.channels.Enter(ctx, info.ChannelID, u2)
	require.Equal(t, domain.ResultSuccess, result)
	require.Equal(t, "team", title)

	online, err := env.channels.OnlineParticipantIDs(ctx, info.ChannelID)
	require.NoError(t, err)
	require.Equal(t, []domain.UserID{u2}, online)
}

func TestEnterSwitchesActiveChannel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	env.connect(t, u1, u2)

	first, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "first")
	require.Equal(t, domain.ResultSuccess, result)
	second, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "second")
	require.Equal(t, domain.ResultSuccess, result)

	_, result = env.channels.Enter(ctx, first.ChannelID, u2)
	require.Equal(t, domain.ResultSuccess, result)
	_, result = env.channels.Enter(ctx, second.ChannelID, u2)
	require.Equal(t, domain.ResultSuccess, result)

	// 一个用户同一时刻只活跃在一个频道
	online, err := env.channels.OnlineParticipantIDs(ctx, first.ChannelID)
	require.NoError(t, err)
	require.Empty(t, online)
	online, err = env.channels.OnlineParticipantIDs(ctx, second.ChannelID)
	require.NoError(t, err)
	require.Equal(t, []domain.UserID{u2}, online)
}

func TestLeaveClearsMembershipAndPresence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	env.connect(t, u1, u2)

	info, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "team")
	require.Equal(t, domain.ResultSuccess, result)
	_, result = env.channels.Enter(ctx, info.ChannelID, u2)
	require.Equal(t, domain.ResultSuccess, result)

	require.Equal(t, domain.ResultSuccess, env.channels.Leave(ctx, info.ChannelID, u2))

	joined, err := env.channels.IsJoined(ctx, info.ChannelID, u2)
	require.NoError(t, err)
	require.False(t, joined)

	online, err := env.presence.OnlineAmong(ctx, info.ChannelID, []domain.UserID{u2})
	require.NoError(t, err)
	require.Empty(t, online)

	// 已不是成员
	require.Equal(t, domain.ResultNotJoined, env.channels.Leave(ctx, info.ChannelID, u2))
}

func TestQuitKeepsPresenceUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	env.connect(t, u1, u2)

	team, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "team")
	require.Equal(t, domain.ResultSuccess, result)
	other, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "other")
	require.Equal(t, domain.ResultSuccess, result)

	// bob 正看着 other，顺手退掉 team：presence 不能被动
	_, result = env.channels.Enter(ctx, other.ChannelID, u2)
	require.Equal(t, domain.ResultSuccess, result)
	require.Equal(t, domain.ResultSuccess, env.channels.Quit(ctx, team.ChannelID, u2))

	online, err := env.presence.OnlineAmong(ctx, other.ChannelID, []domain.UserID{u2})
	require.NoError(t, err)
	require.Equal(t, []domain.UserID{u2}, online)
}

func TestLeaveDecrementsHeadCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	env.connect(t, u1, u2)

	info, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "team")
	require.Equal(t, domain.ResultSuccess, result)
	require.Equal(t, domain.ResultSuccess, env.channels.Leave(ctx, info.ChannelID, u2))

	list, err := env.channels.ChannelsList(ctx, u1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 1, list[0].HeadCount)
}

func TestInviteCodeMemberOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	u3 := env.createUser(t, "carol")
	env.connect(t, u1, u2)

	info, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "team")
	require.Equal(t, domain.ResultSuccess, result)

	_, result = env.channels.InviteCode(ctx, info.ChannelID, u3)
	require.Equal(t, domain.ResultNotJoined, result)
}

func TestChannelsList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bob")
	env.connect(t, u1, u2)

	_, result := env.channels.Create(ctx, u1, []domain.UserID{u2}, "one")
	require.Equal(t, domain.ResultSuccess, result)
	_, result = env.channels.Create(ctx, u1, []domain.UserID{u2}, "two")
	require.Equal(t, domain.ResultSuccess, result)

	list, err := env.channels.ChannelsList(ctx, u2)
	require.NoError(t, err)
	require.Len(t, list, 2)
}
