package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/chatlink/internal/domain"
	"github.com/d60-Lab/chatlink/internal/model"
)

// ConnectedPartner 连接列表查询的投影：对端用户 + 发起邀请的人
type ConnectedPartner struct {
	UserID        int64
	Username      string
	InviterUserID int64
}

type UserConnectionRepository interface {
	// Status returns ConnectionNone when no row exists for the pair.
	// Callers pass ids in any order; the repository canonicalizes.
	Status(ctx context.Context, a, b domain.UserID) (domain.ConnectionStatus, error)
	// Inviter returns 0 with no error when no row exists.
	Inviter(ctx context.Context, a, b domain.UserID) (int64, error)
	// Save upserts the relationship row (status + inviter overwrite).
	Save(ctx context.Context, a, b domain.UserID, status domain.ConnectionStatus, inviterUserID domain.UserID) error
	// CountWithPartners counts, over both sides of the canonical key, rows in
	// the given status between userID and any of partnerIDs.
	CountWithPartners(ctx context.Context, userID domain.UserID, partnerIDs []domain.UserID, status domain.ConnectionStatus) (int64, error)
	// PartnersByStatus merges the partner-A and partner-B sides; canonical
	// ordering splits one user's relationships across both roles.
	PartnersByStatus(ctx context.Context, userID domain.UserID, status domain.ConnectionStatus) ([]ConnectedPartner, error)
}

type userConnectionRepository struct {
	db *gorm.DB
}

func NewUserConnectionRepository(db *gorm.DB) UserConnectionRepository {
	return &userConnectionRepository{db: db}
}

func (r *userConnectionRepository) Status(ctx context.Context, a, b domain.UserID) (domain.ConnectionStatus, error) {
	low, high := domain.CanonicalPair(a, b)
	var row model.UserConnection
	err := r.db.WithContext(ctx).
		Select("status").
		Where("partner_a_user_id = ? AND partner_b_user_id = ?", low.Int64(), high.Int64()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ConnectionNone, nil
		}
		return domain.ConnectionNone, err
	}
	return domain.ConnectionStatus(row.Status), nil
}

func (r *userConnectionRepository) Inviter(ctx context.Context, a, b domain.UserID) (int64, error) {
	low, high := domain.CanonicalPair(a, b)
	var row model.UserConnection
	err := r.db.WithContext(ctx).
		Select("inviter_user_id").
		Where("partner_a_user_id = ? AND partner_b_user_id = ?", low.Int64(), high.Int64()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.InviterUserID, nil
}

func (r *userConnectionRepository) Save(ctx context.Context, a, b domain.UserID, status domain.ConnectionStatus, inviterUserID domain.UserID) error {
	low, high := domain.CanonicalPair(a, b)
	row := &model.UserConnection{
		PartnerAUserID: low.Int64(),
		PartnerBUserID: high.Int64(),
		Status:         string(status),
		InviterUserID:  inviterUserID.Int64(),
	}
	// 状态转移覆盖写，不删除行
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "partner_a_user_id"}, {Name: "partner_b_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "inviter_user_id", "updated_at"}),
		}).
		Create(row).Error
}

func (r *userConnectionRepository) CountWithPartners(ctx context.Context, userID domain.UserID, partnerIDs []domain.UserID, status domain.ConnectionStatus) (int64, error) {
	if len(partnerIDs) == 0 {
		return 0, nil
	}
	ids := make([]int64, len(partnerIDs))
	for i, p := range partnerIDs {
		ids[i] = p.Int64()
	}

	var asLow, asHigh int64
	if err := r.db.WithContext(ctx).
		Model(&model.UserConnection{}).
		Where("partner_a_user_id = ? AND partner_b_user_id IN ? AND status = ?", userID.Int64(), ids, string(status)).
		Count(&asLow).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&model.UserConnection{}).
		Where("partner_b_user_id = ? AND partner_a_user_id IN ? AND status = ?", userID.Int64(), ids, string(status)).
		Count(&asHigh).Error; err != nil {
		return 0, err
	}
	return asLow + asHigh, nil
}

func (r *userConnectionRepository) PartnersByStatus(ctx context.Context, userID domain.UserID, status domain.ConnectionStatus) ([]ConnectedPartner, error) {
	var asLow []ConnectedPartner
	err := r.db.WithContext(ctx).
		Table("user_connections uc").
		Select("uc.partner_b_user_id AS user_id, u.username, uc.inviter_user_id").
		Joins("INNER JOIN users u ON u.user_id = uc.partner_b_user_id").
		Where("uc.partner_a_user_id = ? AND uc.status = ?", userID.Int64(), string(status)).
		Scan(&asLow).Error
	if err != nil {
		return nil, err
	}

	var asHigh []ConnectedPartner
	err = r.db.WithContext(ctx).
		Table("user_connections uc").
		Select("uc.partner_a_user_id AS user_id, u.username, uc.inviter_user_id").
		Joins("INNER JOIN users u ON u.user_id = uc.partner_a_user_id").
		Where("uc.partner_b_user_id = ? AND uc.status = ?", userID.Int64(), string(status)).
		Scan(&asHigh).Error
	if err != nil {
		return nil, err
	}
	return append(asLow, asHigh...), nil
}
