package infrastructure

import (
	"time"

	"saregare/internal/service/checkout/domain"
)

// OrderModel 对应数据库中的 orders 表。
type OrderModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	BuyerID     string `gorm:"size:64;index"`
	ProductID   string `gorm:"size:36;index"`
	LicenseTier string `gorm:"size:16"`
	Amount      int64  // 最小货币单位
	Currency    string `gorm:"size:8"`
	Gateway     string `gorm:"size:32"`
	Status      string `gorm:"size:32;index"`
	PromoName   string `gorm:"size:64"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (OrderModel) TableName() string { return "orders" }

// TransactionModel 对应 transactions 表。记录只插入，从不更新。
type TransactionModel struct {
	ID                string `gorm:"primaryKey;size:36"`
	OrderID           string `gorm:"size:36;index"`
	ProviderPaymentID string `gorm:"size:64"`
	Result            string `gorm:"size:16"`
	RawPayload        []byte `gorm:"type:blob"`
	Reason            string `gorm:"size:255"`
	CreatedAt         time.Time
}

func (TransactionModel) TableName() string { return "transactions" }

func toOrderModel(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:          o.ID,
		BuyerID:     o.BuyerID,
		ProductID:   o.ProductID,
		LicenseTier: string(o.LicenseTier),
		Amount:      o.Amount,
		Currency:    o.Currency,
		Gateway:     o.Gateway,
		Status:      string(o.Status),
		PromoName:   o.PromoName,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toDomainOrder(m *OrderModel) *domain.Order {
	return &domain.Order{
		ID:          m.ID,
		BuyerID:     m.BuyerID,
		ProductID:   m.ProductID,
		LicenseTier: domain.LicenseTier(m.LicenseTier),
		Amount:      m.Amount,
		Currency:    m.Currency,
		Gateway:     m.Gateway,
		Status:      domain.Status(m.Status),
		PromoName:   m.PromoName,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toTransactionModel(t *domain.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:                t.ID,
		OrderID:           t.OrderID,
		ProviderPaymentID: t.ProviderPaymentID,
		Result:            string(t.Result),
		RawPayload:        t.RawPayload,
		Reason:            t.Reason,
		CreatedAt:         t.CreatedAt,
	}
}

func toDomainTransaction(m *TransactionModel) *domain.Transaction {
	return &domain.Transaction{
		ID:                m.ID,
		OrderID:           m.OrderID,
		ProviderPaymentID: m.ProviderPaymentID,
		Result:            domain.VerificationResult(m.Result),
		RawPayload:        m.RawPayload,
		Reason:            m.Reason,
		CreatedAt:         m.CreatedAt,
	}
}
