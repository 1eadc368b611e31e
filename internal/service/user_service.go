package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/repository"
)

var ErrUnknownUsername = errors.New("Invalid username.")

// UserService 用户资料的只读门面；注册/登录走 auth 包
type UserService interface {
	Username(ctx context.Context, userID domain.UserID) (string, error)
	// InviteCode 返回用户自己的个人邀请码
	InviteCode(ctx context.Context, userID domain.UserID) (string, error)
	// ResolveUsernames 把用户名列表映射为 id 列表，保持原顺序。
	// 任一用户名不存在即整体失败（建群参数里夹带不存在的用户）。
	ResolveUsernames(ctx context.Context, usernames []string) ([]domain.UserID, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Username(ctx context.Context, userID domain.UserID) (string, error) {
	name, err := s.userRepo.Username(ctx, userID.Int64())
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", ErrUnknownUsername
	}
	return name, nil
}

func (s *userService) InviteCode(ctx context.Context, userID domain.UserID) (string, error) {
	code, err := s.userRepo.InviteCode(ctx, userID.Int64())
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", fmt.Errorf("invite code missing for user %d", userID.Int64())
	}
	return code, nil
}

func (s *userService) ResolveUsernames(ctx context.Context, usernames []string) ([]domain.UserID, error) {
	ids := make([]domain.UserID, 0, len(usernames))
	for _, name := range usernames {
		id, err := s.userRepo.UserIDByUsername(ctx, name)
		if err != nil {
			return nil, err
		}
		if id == 0 {
			return nil, ErrUnknownUsername
		}
		ids = append(ids, domain.UserID(id))
	}
	return ids, nil
}
