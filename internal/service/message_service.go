package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/model"
	"github.com/d60-Lab/chatlink/internal/repository"
	"github.com/d60-Lab/chatlink/pkg/logger"
)

var ErrSendFailed = errors.New("Send message failed.")

// DeliverFunc 把一条已持久化的消息推给单个接收者（I/O 在工作池里执行）
type DeliverFunc func(recipient domain.UserID)

// MessageService 消息扇出管道：先落库，再把每个在线接收者的投递任务丢进
// 有界工作池。一个慢接收者不会拖住其他人；池满丢弃并告警（尽力而为投递，
// 离线方依赖已持久化的消息）。
type MessageService interface {
	// Send persists the message and fans it out to every online participant
	// except the sender. Persistence failure aborts with no delivery at all.
	Send(ctx context.Context, senderID domain.UserID, channelID domain.ChannelID, content string, deliver DeliverFunc) error
	// Start launches the delivery workers; the returned func drains and stops.
	Start() func(context.Context) error
}

type deliveryJob struct {
	recipient domain.UserID
	deliver   DeliverFunc
}

type messageService struct {
	channels ChannelService
	msgRepo  repository.MessageRepository
	workers  int
	ch       chan deliveryJob
}

func NewMessageService(channels ChannelService, msgRepo repository.MessageRepository, workers, queueSize int) MessageService {
	if workers <= 0 {
		workers = 10
	}
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &messageService{
		channels: channels,
		msgRepo:  msgRepo,
		workers:  workers,
		ch:       make(chan deliveryJob, queueSize),
	}
}

func (s *messageService) Start() func(context.Context) error {
	stopCh := make(chan struct{})
	for i := 0; i < s.workers; i++ {
		go func() {
			for {
				select {
				case job := <-s.ch:
					job.deliver(job.recipient)
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		// 等待队列自然排空一小段时间
		timeout := time.After(2 * time.Second)
		for {
			select {
			case <-timeout:
				return nil
			default:
				if len(s.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

func (s *messageService) Send(ctx context.Context, senderID domain.UserID, channelID domain.ChannelID, content string, deliver DeliverFunc) error {
	// 1) 先持久化；失败则完全不投递，避免投出一条崩溃后无从恢复的消息
	msg := &model.Message{
		UserID:    senderID.Int64(),
		ChannelID: channelID.Int64(),
		Content:   content,
	}
	if err := s.msgRepo.Save(ctx, msg); err != nil {
		logger.Error("send message: persist failed",
			zap.Int64("sender", senderID.Int64()), zap.Int64("channel", channelID.Int64()), zap.Error(err))
		return ErrSendFailed
	}

	// 2) 只发给"此刻正看着这个频道"的参与者
	online, err := s.channels.OnlineParticipantIDs(ctx, channelID)
	if err != nil {
		// 消息已落库；实时投递失败不回滚
		logger.Error("send message: online lookup failed", zap.Int64("channel", channelID.Int64()), zap.Error(err))
		return nil
	}

	for _, recipient := range online {
		if recipient == senderID {
			continue
		}
		select {
		case s.ch <- deliveryJob{recipient: recipient, deliver: deliver}:
		default:
			logger.Warn("fanout queue full, drop delivery",
				zap.Int64("recipient", recipient.Int64()), zap.Int64("channel", channelID.Int64()))
		}
	}
	return nil
}
