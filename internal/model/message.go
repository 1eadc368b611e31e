package model

import "time"

// Message 持久化的聊天消息；实时投递失败不会回滚这条记录
type Message struct {
	MessageSeq int64  `gorm:"primaryKey;autoIncrement"`
	UserID     int64  `gorm:"index:idx_message_channel_user;not null"`
	ChannelID  int64  `gorm:"index:idx_message_channel_user;index;not null"`
	Content    string `gorm:"type:text;not null"`
	CreatedAt  time.Time
}

func (Message) TableName() string { return "messages" }
