package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/chatlink/internal/model"
)

type ChannelRepository interface {
	// Title returns "" with no error when the channel does not exist.
	Title(ctx context.Context, channelID int64) (string, error)
	InviteCode(ctx context.Context, channelID int64) (string, error)
	FindByInviteCode(ctx context.Context, inviteCode string) (*model.Channel, error)
}

type channelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) ChannelRepository { return &channelRepository{db: db} }

func (r *channelRepository) Title(ctx context.Context, channelID int64) (string, error) {
	var title string
	err := r.db.WithContext(ctx).
		Model(&model.Channel{}).
		Select("title").
		Where("channel_id = ?", channelID).
		Scan(&title).Error
	return title, err
}

func (r *channelRepository) InviteCode(ctx context.Context, channelID int64) (string, error) {
	var code string
	err := r.db.WithContext(ctx).
		Model(&model.Channel{}).
		Select("invite_code").
		Where("channel_id = ?", channelID).
		Scan(&code).Error
	return code, err
}

func (r *channelRepository) FindByInviteCode(ctx context.Context, inviteCode string) (*model.Channel, error) {
	var ch model.Channel
	err := r.db.WithContext(ctx).Where("invite_code = ?", inviteCode).First(&ch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ch, nil
}
