package model

import "time"

// User 用户账号；connection_count 只在 accept 事务内加锁更新
type User struct {
	UserID          int64  `gorm:"primaryKey;autoIncrement"`
	Username        string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Password        string `gorm:"type:varchar(128);not null"`
	InviteCode      string `gorm:"type:varchar(36);uniqueIndex;not null"`
	ConnectionCount int    `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (User) TableName() string { return "users" }
