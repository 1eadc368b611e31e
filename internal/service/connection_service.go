package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/model"
	"github.com/d60-Lab/chatlink/internal/repository"
	"github.com/d60-Lab/chatlink/pkg/logger"
)

// 面向客户端的失败文案；handler 直接把 err.Error() 回给请求方
var (
	ErrInvalidInviteCode   = errors.New("Invalid invite code.")
	ErrSelfInvite          = errors.New("Can't self invite.")
	ErrSelfAccept          = errors.New("Can't self accept.")
	ErrInvalidUsername     = errors.New("Invalid username.")
	ErrAlreadyConnected    = errors.New("Already connected.")
	ErrAcceptFailed        = errors.New("Accept failed.")
	ErrRejectFailed        = errors.New("Reject failed.")
	ErrDisconnectFailed    = errors.New("Disconnect failed.")
	ErrConnectionLimit     = errors.New("Connection limit reached.")
	ErrPeerConnectionLimit = errors.New("Connection limit reached by the other user.")
)

// ConnectionService 维护两个用户之间的连接状态机：
// NONE/DISCONNECTED -> PENDING -> ACCEPTED | REJECTED; ACCEPTED -> DISCONNECTED。
type ConnectionService interface {
	// Invite resolves the invitee by invite code and writes PENDING.
	// Returns (inviteeID, inviter username) on success.
	Invite(ctx context.Context, inviterID domain.UserID, code domain.InviteCode) (domain.UserID, string, error)
	// Accept flips PENDING to ACCEPTED under the race-safe limit transition.
	// Returns (inviterID, acceptor username) on success.
	Accept(ctx context.Context, acceptorID domain.UserID, inviterUsername string) (domain.UserID, string, error)
	// Reject requires PENDING and writes REJECTED. Returns the inviter username.
	Reject(ctx context.Context, rejectorID domain.UserID, inviterUsername string) (string, error)
	// Disconnect requires ACCEPTED and writes DISCONNECTED, decrementing both
	// connection counters. Returns the partner username.
	Disconnect(ctx context.Context, userID domain.UserID, partnerUsername string) (string, error)
	ConnectionsByStatus(ctx context.Context, userID domain.UserID, status domain.ConnectionStatus) ([]repository.ConnectedPartner, error)
	// CountAcceptedWith counts how many of partnerIDs have an ACCEPTED
	// relationship with userID. Used by channel creation.
	CountAcceptedWith(ctx context.Context, userID domain.UserID, partnerIDs []domain.UserID) (int64, error)
}

type connectionService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	connRepo repository.UserConnectionRepository
	// limitConnections 在构造时读定，进程生命周期内不变
	limitConnections int
}

func NewConnectionService(db *gorm.DB, userRepo repository.UserRepository, connRepo repository.UserConnectionRepository, limitConnections int) ConnectionService {
	if limitConnections <= 0 {
		limitConnections = 1000
	}
	return &connectionService{
		db:               db,
		userRepo:         userRepo,
		connRepo:         connRepo,
		limitConnections: limitConnections,
	}
}

func (s *connectionService) Invite(ctx context.Context, inviterID domain.UserID, code domain.InviteCode) (domain.UserID, string, error) {
	partner, err := s.userRepo.FindByInviteCode(ctx, code.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("invalid invite code", zap.String("code", code.String()), zap.Int64("from", inviterID.Int64()))
			return 0, "", ErrInvalidInviteCode
		}
		return 0, "", err
	}

	partnerID := domain.UserID(partner.UserID)
	if partnerID == inviterID {
		return 0, "", ErrSelfInvite
	}

	status, err := s.connRepo.Status(ctx, inviterID, partnerID)
	if err != nil {
		return 0, "", err
	}

	switch status {
	case domain.ConnectionNone, domain.ConnectionDisconnected:
		// 邀请方自己的连接数先行检查；最终一致性由 accept 事务保证
		count, err := s.userRepo.ConnectionCount(ctx, inviterID.Int64())
		if err != nil {
			return 0, "", err
		}
		if count >= s.limitConnections {
			return 0, "", ErrConnectionLimit
		}

		inviterUsername, err := s.userRepo.Username(ctx, inviterID.Int64())
		if err != nil || inviterUsername == "" {
			logger.Warn("invite failed: unknown inviter", zap.Int64("inviter", inviterID.Int64()))
			return 0, "", fmt.Errorf("InviteRequest failed.")
		}

		if err := s.connRepo.Save(ctx, inviterID, partnerID, domain.ConnectionPending, inviterID); err != nil {
			logger.Error("set pending failed", zap.Error(err))
			return 0, "", fmt.Errorf("Set PENDING failed.")
		}
		return partnerID, inviterUsername, nil

	case domain.ConnectionAccepted:
		return 0, "", fmt.Errorf("Already connected with %s", partner.Username)

	default: // PENDING, REJECTED: 不重复投递邀请
		logger.Info("invite suppressed",
			zap.Int64("inviter", inviterID.Int64()),
			zap.Int64("partner", partnerID.Int64()),
			zap.String("status", string(status)))
		return 0, "", fmt.Errorf("Already invited to %s", partner.Username)
	}
}

func (s *connectionService) Accept(ctx context.Context, acceptorID domain.UserID, inviterUsername string) (domain.UserID, string, error) {
	inviterID, err := s.resolveInviter(ctx, acceptorID, inviterUsername)
	if err != nil {
		return 0, "", err
	}
	if inviterID == acceptorID {
		return 0, "", ErrSelfAccept
	}

	status, err := s.connRepo.Status(ctx, inviterID, acceptorID)
	if err != nil {
		return 0, "", err
	}
	if status == domain.ConnectionAccepted {
		return 0, "", ErrAlreadyConnected
	}
	if status != domain.ConnectionPending {
		return 0, "", ErrAcceptFailed
	}

	acceptorUsername, err := s.userRepo.Username(ctx, acceptorID.Int64())
	if err != nil || acceptorUsername == "" {
		logger.Error("invalid acceptor", zap.Int64("acceptor", acceptorID.Int64()))
		return 0, "", ErrAcceptFailed
	}

	if err := s.acceptWithLimit(ctx, acceptorID, inviterID); err != nil {
		return 0, "", err
	}
	return inviterID, acceptorUsername, nil
}

func (s *connectionService) Reject(ctx context.Context, rejectorID domain.UserID, inviterUsername string) (string, error) {
	inviterID, err := s.resolveInviter(ctx, rejectorID, inviterUsername)
	if err != nil {
		return "", ErrRejectFailed
	}
	if inviterID == rejectorID {
		return "", ErrRejectFailed
	}

	status, err := s.connRepo.Status(ctx, inviterID, rejectorID)
	if err != nil || status != domain.ConnectionPending {
		return "", ErrRejectFailed
	}

	// inviter 保持不变：REJECTED 行仍然记录是谁发出的邀请
	if err := s.connRepo.Save(ctx, inviterID, rejectorID, domain.ConnectionRejected, inviterID); err != nil {
		logger.Error("set rejected failed", zap.Error(err))
		return "", ErrRejectFailed
	}
	return inviterUsername, nil
}

func (s *connectionService) Disconnect(ctx context.Context, userID domain.UserID, partnerUsername string) (string, error) {
	partnerID, err := s.userRepo.UserIDByUsername(ctx, partnerUsername)
	if err != nil || partnerID == 0 {
		return "", ErrInvalidUsername
	}
	pid := domain.UserID(partnerID)
	if pid == userID {
		return "", ErrDisconnectFailed
	}

	if err := s.breakAccepted(ctx, userID, pid); err != nil {
		return "", err
	}
	return partnerUsername, nil
}

func (s *connectionService) ConnectionsByStatus(ctx context.Context, userID domain.UserID, status domain.ConnectionStatus) ([]repository.ConnectedPartner, error) {
	return s.connRepo.PartnersByStatus(ctx, userID, status)
}

func (s *connectionService) CountAcceptedWith(ctx context.Context, userID domain.UserID, partnerIDs []domain.UserID) (int64, error) {
	return s.connRepo.CountWithPartners(ctx, userID, partnerIDs, domain.ConnectionAccepted)
}

// resolveInviter maps the claimed inviter username to a user id and verifies
// the relationship row really was created by that user. Without the ownership
// check an acceptor could claim any username and hijack a pending row.
func (s *connectionService) resolveInviter(ctx context.Context, selfID domain.UserID, inviterUsername string) (domain.UserID, error) {
	id, err := s.userRepo.UserIDByUsername(ctx, inviterUsername)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, ErrInvalidUsername
	}
	inviterID := domain.UserID(id)
	if inviterID == selfID {
		// 自己邀请自己的检查由调用方给出更具体的文案
		return inviterID, nil
	}

	recorded, err := s.connRepo.Inviter(ctx, selfID, inviterID)
	if err != nil {
		return 0, err
	}
	if recorded != inviterID.Int64() {
		return 0, ErrInvalidUsername
	}
	return inviterID, nil
}

// acceptWithLimit 竞态安全的 accept 转移：
// 总是按 userID 升序对两行用户记录加排他锁（全局锁序，避免交叉死锁），
// 锁内复核 PENDING、校验双方连接数上限，然后在同一事务里 +1/+1 并翻转状态。
func (s *connectionService) acceptWithLimit(ctx context.Context, acceptorID, inviterID domain.UserID) error {
	low, high := domain.CanonicalPair(acceptorID, inviterID)

	limitErr := func(exhausted domain.UserID) error {
		if exhausted == acceptorID {
			return ErrConnectionLimit
		}
		return ErrPeerConnectionLimit
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var first, second model.User
		if err := repository.ForUpdate(tx).Where("user_id = ?", low.Int64()).First(&first).Error; err != nil {
			return ErrAcceptFailed
		}
		if err := repository.ForUpdate(tx).Where("user_id = ?", high.Int64()).First(&second).Error; err != nil {
			return ErrAcceptFailed
		}

		// 锁内复核：并发 accept 只允许第一个成功
		var conn model.UserConnection
		if err := tx.
			Where("partner_a_user_id = ? AND partner_b_user_id = ? AND status = ?",
				low.Int64(), high.Int64(), string(domain.ConnectionPending)).
			First(&conn).Error; err != nil {
			return ErrAcceptFailed
		}

		if first.ConnectionCount >= s.limitConnections {
			return limitErr(low)
		}
		if second.ConnectionCount >= s.limitConnections {
			return limitErr(high)
		}

		if err := tx.Model(&model.User{}).
			Where("user_id = ?", low.Int64()).
			Update("connection_count", first.ConnectionCount+1).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).
			Where("user_id = ?", high.Int64()).
			Update("connection_count", second.ConnectionCount+1).Error; err != nil {
			return err
		}
		return tx.Model(&model.UserConnection{}).
			Where("partner_a_user_id = ? AND partner_b_user_id = ?", low.Int64(), high.Int64()).
			Update("status", string(domain.ConnectionAccepted)).Error
	})
}

// breakAccepted 与 acceptWithLimit 对称：同样的升序锁序，要求现状 ACCEPTED，
// 双方计数 -1 并写 DISCONNECTED，保证计数始终等于 ACCEPTED 行数。
func (s *connectionService) breakAccepted(ctx context.Context, userID, partnerID domain.UserID) error {
	low, high := domain.CanonicalPair(userID, partnerID)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var first, second model.User
		if err := repository.ForUpdate(tx).Where("user_id = ?", low.Int64()).First(&first).Error; err != nil {
			return ErrDisconnectFailed
		}
		if err := repository.ForUpdate(tx).Where("user_id = ?", high.Int64()).First(&second).Error; err != nil {
			return ErrDisconnectFailed
		}

		var conn model.UserConnection
		if err := tx.
			Where("partner_a_user_id = ? AND partner_b_user_id = ? AND status = ?",
				low.Int64(), high.Int64(), string(domain.ConnectionAccepted)).
			First(&conn).Error; err != nil {
			return ErrDisconnectFailed
		}

		if err := tx.Model(&model.User{}).
			Where("user_id = ?", low.Int64()).
			Update("connection_count", first.ConnectionCount-1).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).
			Where("user_id = ?", high.Int64()).
			Update("connection_count", second.ConnectionCount-1).Error; err != nil {
			return err
		}
		return tx.Model(&model.UserConnection{}).
			Where("partner_a_user_id = ? AND partner_b_user_id = ?", low.Int64(), high.Int64()).
			Update("status", string(domain.ConnectionDisconnected)).Error
	})
}
