package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/pkg/logger"
)

const presenceKeyNamespace = "message:user"

// PresenceService 记录每个用户当前正在看的频道（TTL 键，过期即离线）。
// 一个用户只有一个 presence 槽位：进入新频道会覆盖旧频道的记录。
type PresenceService interface {
	// SetActive writes (user -> channel) with the configured TTL.
	SetActive(ctx context.Context, userID domain.UserID, channelID domain.ChannelID) bool
	// Refresh re-applies the TTL without touching the value. Expired keys are
	// a silent no-op; keep-alive must not resurrect a dead entry.
	Refresh(ctx context.Context, userID domain.UserID)
	// RemoveActive deletes the entry; idempotent.
	RemoveActive(ctx context.Context, userID domain.UserID)
	// OnlineAmong returns the subset of candidates whose presence entry points
	// at channelID. One MGET round trip regardless of candidate count.
	OnlineAmong(ctx context.Context, channelID domain.ChannelID, candidates []domain.UserID) ([]domain.UserID, error)
}

type presenceService struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPresenceService(rdb *redis.Client, ttl time.Duration) PresenceService {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &presenceService{rdb: rdb, ttl: ttl}
}

// presenceKey 只由 userID 决定，例如 message:user:42:channel_id
func presenceKey(userID domain.UserID) string {
	return fmt.Sprintf("%s:%d:channel_id", presenceKeyNamespace, userID.Int64())
}

func (s *presenceService) SetActive(ctx context.Context, userID domain.UserID, channelID domain.ChannelID) bool {
	key := presenceKey(userID)
	if err := s.rdb.Set(ctx, key, strconv.FormatInt(channelID.Int64(), 10), s.ttl).Err(); err != nil {
		logger.Error("redis set failed", zap.String("key", key), zap.Int64("channel", channelID.Int64()), zap.Error(err))
		return false
	}
	return true
}

func (s *presenceService) Refresh(ctx context.Context, userID domain.UserID) {
	key := presenceKey(userID)
	// EXPIRE on a missing key returns false; that is fine, the entry had
	// already timed out.
	if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
		logger.Error("redis expire failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *presenceService) RemoveActive(ctx context.Context, userID domain.UserID) {
	key := presenceKey(userID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		logger.Error("redis del failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *presenceService) OnlineAmong(ctx context.Context, channelID domain.ChannelID, candidates []domain.UserID) ([]domain.UserID, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	keys := make([]string, len(candidates))
	for i, id := range candidates {
		keys[i] = presenceKey(id)
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		logger.Error("redis mget failed", zap.Int64("channel", channelID.Int64()), zap.Error(err))
		return nil, err
	}

	want := strconv.FormatInt(channelID.Int64(), 10)
	online := make([]domain.UserID, 0, len(candidates))
	for i, v := range vals {
		if v == nil {
			continue // 不在线或已过期
		}
		if str, ok := v.(string); ok && str == want {
			online = append(online, candidates[i])
		}
	}
	return online, nil
}
