package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/model"
	"github.com/d60-Lab/chatlink/internal/repository"
	"github.com/d60-Lab/chatlink/pkg/database"
)

type testEnv struct {
	db  *gorm.DB
	mr  *miniredis.Miniredis
	rdb *redis.Client

	userRepo repository.UserRepository

	users       UserService
	presence    PresenceService
	connections ConnectionService
	channels    ChannelService
}

type envOptions struct {
	connectionLimit int
	headLimit       int
	presenceTTL     time.Duration
}

func newTestEnv(t *testing.T, opts ...func(*envOptions)) *testEnv {
	t.Helper()

	o := envOptions{connectionLimit: 1000, headLimit: 100, presenceTTL: 300 * time.Second}
	for _, fn := range opts {
		fn(&o)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	// :memory: 给连接池里的每条连接各自一个库；钉死单连接，
	// 并发事务在池上排队而不是各写各的库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	userRepo := repository.NewUserRepository(db)
	connRepo := repository.NewUserConnectionRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	memberRepo := repository.NewUserChannelRepository(db)

	presence := NewPresenceService(rdb, o.presenceTTL)
	connections := NewConnectionService(db, userRepo, connRepo, o.connectionLimit)
	channels := NewChannelService(db, presence, connections, channelRepo, memberRepo, o.headLimit)

	return &testEnv{
		db:          db,
		mr:          mr,
		rdb:         rdb,
		userRepo:    userRepo,
		users:       NewUserService(userRepo),
		presence:    presence,
		connections: connections,
		channels:    channels,
	}
}

func withConnectionLimit(n int) func(*envOptions) {
	return func(o *envOptions) { o.connectionLimit = n }
}

func withHeadLimit(n int) func(*envOptions) {
	return func(o *envOptions) { o.headLimit = n }
}

func withPresenceTTL(ttl time.Duration) func(*envOptions) {
	return func(o *envOptions) { o.presenceTTL = ttl }
}

// createUser 造一个用户，邀请码固定为 code-<username>
func (e *testEnv) createUser(t *testing.T, username string) domain.UserID {
	t.Helper()
	u := &model.User{
		Username:   username,
		Password:   "secret",
		InviteCode: "code-" + username,
	}
	require.NoError(t, e.userRepo.Create(context.Background(), u))
	return domain.UserID(u.UserID)
}

// connect 走完整的 invite + accept 流程把两个用户变成 ACCEPTED
func (e *testEnv) connect(t *testing.T, a, b domain.UserID) {
	t.Helper()
	ctx := context.Background()

	bCode, err := e.userRepo.InviteCode(ctx, b.Int64())
	require.NoError(t, err)
	aName, err := e.userRepo.Username(ctx, a.Int64())
	require.NoError(t, err)

	_, _, err = e.connections.Invite(ctx, a, domain.InviteCode(bCode))
	require.NoError(t, err)
	_, _, err = e.connections.Accept(ctx, b, aName)
	require.NoError(t, err)
}

func (e *testEnv) connectionStatus(t *testing.T, a, b domain.UserID) domain.ConnectionStatus {
	t.Helper()
	low, high := domain.CanonicalPair(a, b)
	var conn model.UserConnection
	err := e.db.Where("partner_a_user_id = ? AND partner_b_user_id = ?", low.Int64(), high.Int64()).
		First(&conn).Error
	if err == gorm.ErrRecordNotFound {
		return domain.ConnectionNone
	}
	require.NoError(t, err)
	return domain.ConnectionStatus(conn.Status)
}

// acceptedRowCount 该用户名下（任一侧）处于 ACCEPTED 的关系行数
func (e *testEnv) acceptedRowCount(t *testing.T, id domain.UserID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.UserConnection{}).
		Where("status = ? AND (partner_a_user_id = ? OR partner_b_user_id = ?)",
			string(domain.ConnectionAccepted), id.Int64(), id.Int64()).
		Count(&n).Error)
	return n
}

func (e *testEnv) connectionCount(t *testing.T, id domain.UserID) int {
	t.Helper()
	n, err := e.userRepo.ConnectionCount(context.Background(), id.Int64())
	require.NoError(t, err)
	return n
}

func (e *testEnv) seedUsers(t *testing.T, n int) []domain.UserID {
	t.Helper()
	ids := make([]domain.UserID, n)
	for i := range ids {
		ids[i] = e.createUser(t, fmt.Sprintf("user%02d", i+1))
	}
	return ids
}
