package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"saregare/internal/service/checkout/domain"
)

// GormOrderRepository 是 domain.OrderRepository 的 GORM/MySQL 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(toOrderModel(order)).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var m OrderModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return toDomainOrder(&m), nil
}

// UpdateStatus 用条件更新实现 CAS：WHERE 带上期望的当前状态，
// 影响行数为 0 说明要么订单不存在，要么并发方已经改走了状态。
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) error {
	if !from.CanTransitionTo(to) {
		return domain.ErrInvalidTransition
	}
	res := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// 区分"不存在"与"状态已变"
		var count int64
		if err := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrOrderNotFound
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

// GormTransactionRepository 是 domain.TransactionRepository 的 GORM 实现。
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Record(ctx context.Context, tx *domain.Transaction) error {
	return r.db.WithContext(ctx).Create(toTransactionModel(tx)).Error
}

func (r *GormTransactionRepository) ListByOrder(ctx context.Context, orderID string) ([]*domain.Transaction, error) {
	var models []TransactionModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Transaction, 0, len(models))
	for i := range models {
		out = append(out, toDomainTransaction(&models[i]))
	}
	return out, nil
}

func (r *GormTransactionRepository) CountVerified(ctx context.Context, orderID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&TransactionModel{}).
		Where("order_id = ? AND result = ?", orderID, string(domain.VerificationVerified)).
		Count(&count).Error
	return count, err
}
