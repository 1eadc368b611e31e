package model

import "time"

// UserChannel 频道成员关系，复合主键 (user_id, channel_id)
type UserChannel struct {
	UserID         int64 `gorm:"primaryKey;autoIncrement:false"`
	ChannelID      int64 `gorm:"primaryKey;autoIncrement:false;index:idx_user_channel_channel"`
	LastReadMsgSeq int64 `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (UserChannel) TableName() string { return "user_channels" }
