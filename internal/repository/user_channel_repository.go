package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/chatlink/internal/model"
)

// ChannelSummary 用户频道列表的投影
type ChannelSummary struct {
	ChannelID int64
	Title     string
	HeadCount int
}

type UserChannelRepository interface {
	Exists(ctx context.Context, userID, channelID int64) (bool, error)
	UserIDs(ctx context.Context, channelID int64) ([]int64, error)
	ChannelsByUserID(ctx context.Context, userID int64) ([]ChannelSummary, error)
}

type userChannelRepository struct {
	db *gorm.DB
}

func NewUserChannelRepository(db *gorm.DB) UserChannelRepository {
	return &userChannelRepository{db: db}
}

func (r *userChannelRepository) Exists(ctx context.Context, userID, channelID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.UserChannel{}).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *userChannelRepository) UserIDs(ctx context.Context, channelID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.UserChannel{}).
		Select("user_id").
		Where("channel_id = ?", channelID).
		Scan(&ids).Error
	return ids, err
}

func (r *userChannelRepository) ChannelsByUserID(ctx context.Context, userID int64) ([]ChannelSummary, error) {
	var res []ChannelSummary
	err := r.db.WithContext(ctx).
		Table("user_channels uc").
		Select("c.channel_id, c.title, c.head_count").
		Joins("INNER JOIN channels c ON c.channel_id = uc.channel_id").
		Where("uc.user_id = ?", userID).
		Scan(&res).Error
	return res, err
}
