package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/chatlink/internal/model"
)

type MessageRepository interface {
	Save(ctx context.Context, msg *model.Message) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository { return &messageRepository{db: db} }

func (r *messageRepository) Save(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}
