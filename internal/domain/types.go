package domain

import "errors"

var (
	ErrInvalidUserID    = errors.New("invalid user id")
	ErrInvalidChannelID = errors.New("invalid channel id")
	ErrEmptyInviteCode  = errors.New("empty invite code")
)

// UserID 正整数用户标识
type UserID int64

func NewUserID(id int64) (UserID, error) {
	if id <= 0 {
		return 0, ErrInvalidUserID
	}
	return UserID(id), nil
}

func (u UserID) Int64() int64 { return int64(u) }

// ChannelID 正整数频道标识
type ChannelID int64

func NewChannelID(id int64) (ChannelID, error) {
	if id <= 0 {
		return 0, ErrInvalidChannelID
	}
	return ChannelID(id), nil
}

func (c ChannelID) Int64() int64 { return int64(c) }

// InviteCode 不透明邀请码；只用于查找，不做任何鉴权
type InviteCode string

func NewInviteCode(code string) (InviteCode, error) {
	if code == "" {
		return "", ErrEmptyInviteCode
	}
	return InviteCode(code), nil
}

func (i InviteCode) String() string { return string(i) }

// CanonicalPair returns the two user ids in ascending order. A relationship
// between two users is always stored under (low, high) so that both sides map
// to the same row.
func CanonicalPair(a, b UserID) (UserID, UserID) {
	if a < b {
		return a, b
	}
	return b, a
}
