package model

import "time"

// Channel 多人频道；head_count 在创建/加入/退出事务内维护
type Channel struct {
	ChannelID  int64  `gorm:"primaryKey;autoIncrement"`
	Title      string `gorm:"type:varchar(128);not null"`
	HeadCount  int    `gorm:"not null"`
	InviteCode string `gorm:"type:varchar(36);uniqueIndex;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Channel) TableName() string { return "channels" }
