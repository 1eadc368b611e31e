package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/model"
	"github.com/d60-Lab/chatlink/internal/repository"
	"github.com/d60-Lab/chatlink/pkg/logger"
)

// ChannelInfo 返回给客户端的频道摘要
type ChannelInfo struct {
	ChannelID domain.ChannelID
	Title     string
	HeadCount int
}

// ChannelService 频道的创建/加入/进入/退出。
// 只读依赖 ConnectionService（建群前置条件）；连接状态机绝不反向引用频道，
// 保持单向依赖。
type ChannelService interface {
	// Create 建群：每个参与者都必须与创建者 ACCEPTED。
	Create(ctx context.Context, creatorID domain.UserID, participantIDs []domain.UserID, title string) (*ChannelInfo, domain.ResultType)
	// Join 凭频道邀请码加入；容量检查与成员写入在同一把频道行锁下完成。
	Join(ctx context.Context, code domain.InviteCode, userID domain.UserID) (*ChannelInfo, domain.ResultType)
	IsJoined(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) (bool, error)
	// Enter 进入频道视图：写 presence，返回频道标题。
	Enter(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) (string, domain.ResultType)
	// Leave 退出成员关系并清除 presence。
	Leave(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) domain.ResultType
	// Quit 退出成员关系（不动 presence；用户可能正看着别的频道）。
	Quit(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) domain.ResultType
	// InviteCode 非成员不可获取频道邀请码。
	InviteCode(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) (domain.InviteCode, domain.ResultType)
	ChannelsList(ctx context.Context, userID domain.UserID) ([]repository.ChannelSummary, error)
	ParticipantIDs(ctx context.Context, channelID domain.ChannelID) ([]domain.UserID, error)
	// OnlineParticipantIDs 成员列表与 presence 批量查询的组合。
	OnlineParticipantIDs(ctx context.Context, channelID domain.ChannelID) ([]domain.UserID, error)
}

type channelService struct {
	db          *gorm.DB
	presence    PresenceService
	connections ConnectionService
	channelRepo repository.ChannelRepository
	memberRepo  repository.UserChannelRepository
	// limitHeadCount 频道人数上限
	limitHeadCount int
}

func NewChannelService(db *gorm.DB, presence PresenceService, connections ConnectionService,
	channelRepo repository.ChannelRepository, memberRepo repository.UserChannelRepository, limitHeadCount int) ChannelService {
	if limitHeadCount <= 0 {
		limitHeadCount = 100
	}
	return &channelService{
		db:             db,
		presence:       presence,
		connections:    connections,
		channelRepo:    channelRepo,
		memberRepo:     memberRepo,
		limitHeadCount: limitHeadCount,
	}
}

func (s *channelService) Create(ctx context.Context, creatorID domain.UserID, participantIDs []domain.UserID, title string) (*ChannelInfo, domain.ResultType) {
	if title == "" {
		logger.Warn("create channel: empty title", zap.Int64("creator", creatorID.Int64()))
		return nil, domain.ResultInvalidArgs
	}

	headCount := len(participantIDs) + 1 // 参与者 + 创建者
	if headCount > s.limitHeadCount {
		logger.Warn("create channel: over limit",
			zap.Int64("creator", creatorID.Int64()),
			zap.Int("participants", len(participantIDs)))
		return nil, domain.ResultOverLimit
	}

	// 群聊前置：创建者与每一个参与者都是 ACCEPTED。
	// 参与者彼此之间不要求互相连接。
	accepted, err := s.connections.CountAcceptedWith(ctx, creatorID, participantIDs)
	if err != nil {
		logger.Error("create channel: count accepted failed", zap.Error(err))
		return nil, domain.ResultFailed
	}
	if accepted != int64(len(participantIDs)) {
		logger.Warn("create channel: unconnected participant included", zap.Int64("creator", creatorID.Int64()))
		return nil, domain.ResultNotAllowed
	}

	channel := &model.Channel{
		Title:      title,
		HeadCount:  headCount,
		InviteCode: uuid.New().String(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(channel).Error; err != nil {
			return err
		}
		members := make([]model.UserChannel, 0, headCount)
		for _, pid := range participantIDs {
			members = append(members, model.UserChannel{UserID: pid.Int64(), ChannelID: channel.ChannelID})
		}
		members = append(members, model.UserChannel{UserID: creatorID.Int64(), ChannelID: channel.ChannelID})
		return tx.Create(&members).Error
	})
	if err != nil {
		logger.Error("create channel failed", zap.Error(err))
		return nil, domain.ResultFailed
	}

	return &ChannelInfo{
		ChannelID: domain.ChannelID(channel.ChannelID),
		Title:     title,
		HeadCount: headCount,
	}, domain.ResultSuccess
}

func (s *channelService) Join(ctx context.Context, code domain.InviteCode, userID domain.UserID) (*ChannelInfo, domain.ResultType) {
	found, err := s.channelRepo.FindByInviteCode(ctx, code.String())
	if err != nil {
		logger.Error("join: lookup failed", zap.Error(err))
		return nil, domain.ResultFailed
	}
	if found == nil {
		return nil, domain.ResultNotFound
	}

	var info *ChannelInfo
	result := domain.ResultFailed
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 容量边界的并发 join 靠频道行锁串行化：
		// 读 head_count 与成员写入必须在同一把锁下。
		var ch model.Channel
		if err := repository.ForUpdate(tx).Where("channel_id = ?", found.ChannelID).First(&ch).Error; err != nil {
			return err
		}

		var cnt int64
		if err := tx.Model(&model.UserChannel{}).
			Where("user_id = ? AND channel_id = ?", userID.Int64(), ch.ChannelID).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			result = domain.ResultAlreadyJoined
			return nil
		}

		if ch.HeadCount+1 > s.limitHeadCount {
			result = domain.ResultOverLimit
			return nil
		}

		if err := tx.Create(&model.UserChannel{UserID: userID.Int64(), ChannelID: ch.ChannelID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Channel{}).
			Where("channel_id = ?", ch.ChannelID).
			Update("head_count", ch.HeadCount+1).Error; err != nil {
			return err
		}

		info = &ChannelInfo{
			ChannelID: domain.ChannelID(ch.ChannelID),
			Title:     ch.Title,
			HeadCount: ch.HeadCount + 1,
		}
		result = domain.ResultSuccess
		return nil
	})
	if err != nil {
		logger.Error("join failed", zap.Int64("user", userID.Int64()), zap.Error(err))
		return nil, domain.ResultFailed
	}
	return info, result
}

func (s *channelService) IsJoined(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) (bool, error) {
	return s.memberRepo.Exists(ctx, userID.Int64(), channelID.Int64())
}

func (s *channelService) Enter(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) (string, domain.ResultType) {
	joined, err := s.IsJoined(ctx, channelID, userID)
	if err != nil {
		return "", domain.ResultFailed
	}
	if !joined {
		logger.Warn("enter: not joined", zap.Int64("channel", channelID.Int64()), zap.Int64("user", userID.Int64()))
		return "", domain.ResultNotJoined
	}

	title, err := s.channelRepo.Title(ctx, channelID.Int64())
	if err != nil {
		return "", domain.ResultFailed
	}
	if title == "" {
		logger.Warn("enter: channel does not exist", zap.Int64("channel", channelID.Int64()))
		return "", domain.ResultNotFound
	}

	// presence 写入失败与成员/存在性检查失败要区分：
	// 前者是"暂时进不去"，后者是"不允许进"。
	if !s.presence.SetActive(ctx, userID, channelID) {
		logger.Error("enter: presence write failed", zap.Int64("channel", channelID.Int64()), zap.Int64("user", userID.Int64()))
		return "", domain.ResultFailed
	}
	return title, domain.ResultSuccess
}

func (s *channelService) Leave(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) domain.ResultType {
	result := s.removeMember(ctx, channelID, userID)
	if result == domain.ResultSuccess {
		s.presence.RemoveActive(ctx, userID)
	}
	return result
}

func (s *channelService) Quit(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) domain.ResultType {
	return s.removeMember(ctx, channelID, userID)
}

// removeMember 频道行锁下删除成员并回减 head_count
func (s *channelService) removeMember(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) domain.ResultType {
	result := domain.ResultFailed
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ch model.Channel
		if err := repository.ForUpdate(tx).Where("channel_id = ?", channelID.Int64()).First(&ch).Error; err != nil {
			result = domain.ResultNotFound
			return nil
		}

		res := tx.Where("user_id = ? AND channel_id = ?", userID.Int64(), channelID.Int64()).
			Delete(&model.UserChannel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			result = domain.ResultNotJoined
			return nil
		}

		if err := tx.Model(&model.Channel{}).
			Where("channel_id = ?", ch.ChannelID).
			Update("head_count", ch.HeadCount-1).Error; err != nil {
			return err
		}
		result = domain.ResultSuccess
		return nil
	})
	if err != nil {
		logger.Error("remove member failed",
			zap.Int64("channel", channelID.Int64()), zap.Int64("user", userID.Int64()), zap.Error(err))
		return domain.ResultFailed
	}
	return result
}

func (s *channelService) InviteCode(ctx context.Context, channelID domain.ChannelID, userID domain.UserID) (domain.InviteCode, domain.ResultType) {
	joined, err := s.IsJoined(ctx, channelID, userID)
	if err != nil {
		return "", domain.ResultFailed
	}
	if !joined {
		return "", domain.ResultNotJoined
	}

	code, err := s.channelRepo.InviteCode(ctx, channelID.Int64())
	if err != nil {
		return "", domain.ResultFailed
	}
	if code == "" {
		logger.Warn("invite code missing", zap.Int64("channel", channelID.Int64()))
		return "", domain.ResultNotFound
	}
	return domain.InviteCode(code), domain.ResultSuccess
}

func (s *channelService) ChannelsList(ctx context.Context, userID domain.UserID) ([]repository.ChannelSummary, error) {
	return s.memberRepo.ChannelsByUserID(ctx, userID.Int64())
}

func (s *channelService) ParticipantIDs(ctx context.Context, channelID domain.ChannelID) ([]domain.UserID, error) {
	ids, err := s.memberRepo.UserIDs(ctx, channelID.Int64())
	if err != nil {
		return nil, err
	}
	res := make([]domain.UserID, len(ids))
	for i, id := range ids {
		res[i] = domain.UserID(id)
	}
	return res, nil
}

func (s *channelService) OnlineParticipantIDs(ctx context.Context, channelID domain.ChannelID) ([]domain.UserID, error) {
	participants, err := s.ParticipantIDs(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return s.presence.OnlineAmong(ctx, channelID, participants)
}
