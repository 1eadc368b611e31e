package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/model"
	"github.com/d60-Lab/chatlink/internal/repository"
	"github.com/d60-Lab/chatlink/internal/service"
	"github.com/d60-Lab/chatlink/pkg/database"
)

// 消息扇出端到端延迟（落库 -> 工作池 -> 投递回调）。
// 自带 sqlite + miniredis，不依赖外部环境。
func main() {
	members := envInt("MEMBERS", 100)
	messages := envInt("MESSAGES", 500)
	workers := envInt("WORKERS", 10)

	db := must(gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}))
	mustDo(database.Migrate(db))

	mr := must(miniredis.Run())
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	connRepo := repository.NewUserConnectionRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	memberRepo := repository.NewUserChannelRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	presence := service.NewPresenceService(rdb, 300*time.Second)
	connections := service.NewConnectionService(db, userRepo, connRepo, 1000)
	channels := service.NewChannelService(db, presence, connections, channelRepo, memberRepo, members+1)
	msgSvc := service.NewMessageService(channels, msgRepo, workers, 10000)
	stop := msgSvc.Start()
	defer stop(ctx)

	// 一个频道，members 个成员，全部在线
	ch := &model.Channel{Title: "bench", HeadCount: members, InviteCode: "bench"}
	mustDo(db.Create(ch).Error)
	channelID := domain.ChannelID(ch.ChannelID)
	rows := make([]model.UserChannel, members)
	for i := 0; i < members; i++ {
		uid := int64(i + 1)
		mustDo(db.Create(&model.User{Username: fmt.Sprintf("u%d", uid), Password: "x", InviteCode: fmt.Sprintf("c%d", uid)}).Error)
		rows[i] = model.UserChannel{UserID: uid, ChannelID: ch.ChannelID}
		presence.SetActive(ctx, domain.UserID(uid), channelID)
	}
	mustDo(db.Create(&rows).Error)

	sender := domain.UserID(1)
	durations := make([]time.Duration, 0, messages)

	for i := 0; i < messages; i++ {
		var wg sync.WaitGroup
		wg.Add(members - 1) // 发送者不收自己的消息
		st := time.Now()
		err := msgSvc.Send(ctx, sender, channelID, "hello", func(domain.UserID) {
			wg.Done()
		})
		mustDo(err)
		wg.Wait()
		durations = append(durations, time.Since(st))
	}

	fmt.Printf("MEMBERS=%d MESSAGES=%d WORKERS=%d\n", members, messages, workers)
	fmt.Printf("Fan-out e2e: avg=%v p95=%v p99=%v\n",
		avg(durations), pct(durations, 0.95), pct(durations, 0.99))
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
