package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/chatlink/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByInviteCode(ctx context.Context, inviteCode string) (*model.User, error)
	// Username returns "" with no error when the user does not exist.
	Username(ctx context.Context, userID int64) (string, error)
	// UserIDByUsername returns 0 with no error when the user does not exist.
	UserIDByUsername(ctx context.Context, username string) (int64, error)
	InviteCode(ctx context.Context, userID int64) (string, error)
	ConnectionCount(ctx context.Context, userID int64) (int, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindByInviteCode(ctx context.Context, inviteCode string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("invite_code = ?", inviteCode).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Username(ctx context.Context, userID int64) (string, error) {
	var name string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("username").
		Where("user_id = ?", userID).
		Scan(&name).Error
	return name, err
}

func (r *userRepository) UserIDByUsername(ctx context.Context, username string) (int64, error) {
	var id int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("user_id").
		Where("username = ?", username).
		Scan(&id).Error
	return id, err
}

func (r *userRepository) InviteCode(ctx context.Context, userID int64) (string, error) {
	var code string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("invite_code").
		Where("user_id = ?", userID).
		Scan(&code).Error
	return code, err
}

func (r *userRepository) ConnectionCount(ctx context.Context, userID int64) (int, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Select("connection_count").Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return u.ConnectionCount, nil
}
