package model

import "time"

// UserConnection 两个用户之间的关系行。
// 复合主键 (partner_a_user_id, partner_b_user_id) 且总是 partnerA < partnerB
// （canonical ordering），同一对用户只存在一行。行从不删除，状态转移覆盖写。
type UserConnection struct {
	PartnerAUserID int64  `gorm:"primaryKey;autoIncrement:false"`
	PartnerBUserID int64  `gorm:"primaryKey;autoIncrement:false"`
	Status         string `gorm:"type:varchar(16);index;not null"`
	InviterUserID  int64  `gorm:"not null"` // 最近一次发出邀请的人
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (UserConnection) TableName() string { return "user_connections" }
