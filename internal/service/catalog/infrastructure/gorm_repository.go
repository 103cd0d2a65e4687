package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"saregare/internal/service/catalog/domain"
)

// ProductModel 对应数据库中的 products 表。
type ProductModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	Title          string `gorm:"size:255"`
	Genre          string `gorm:"size:32;index"`
	OwnerEmail     string `gorm:"size:255"`
	PreviewURL     string `gorm:"size:512"`
	BasicPrice     *int64
	PremiumPrice   *int64
	ExclusivePrice *int64
	Active         bool `gorm:"index"`
	CreatedAt      time.Time
}

func (ProductModel) TableName() string { return "products" }

// GormProductRepository 是 domain.Repository 的 GORM 实现。
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Migrate 建表，由组合根在启动时调用。
func (r *GormProductRepository) Migrate() error {
	return r.db.AutoMigrate(&ProductModel{})
}

func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var m ProductModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return toDomainProduct(&m), nil
}

func (r *GormProductRepository) ListActive(ctx context.Context) ([]*domain.Product, error) {
	var models []ProductModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Product, 0, len(models))
	for i := range models {
		out = append(out, toDomainProduct(&models[i]))
	}
	return out, nil
}

func toDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:             m.ID,
		Title:          m.Title,
		Genre:          m.Genre,
		OwnerEmail:     m.OwnerEmail,
		PreviewURL:     m.PreviewURL,
		BasicPrice:     m.BasicPrice,
		PremiumPrice:   m.PremiumPrice,
		ExclusivePrice: m.ExclusivePrice,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
	}
}
