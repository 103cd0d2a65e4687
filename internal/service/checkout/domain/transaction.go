package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationResult 是一次回调验证的结论。
type VerificationResult string

const (
	VerificationVerified  VerificationResult = "verified"  // 验签与金额校验都通过
	VerificationRejected  VerificationResult = "rejected"  // 验签失败或金额不符
	VerificationDuplicate VerificationResult = "duplicate" // 订单已终态，回调被记录但不再生效
)

// Transaction 是一条不可变的网关回调记录，恰好对应一个订单。
// 不变量：每个订单至多一条 verified 记录，由 Verifier 的串行化
// 加仓储层的 CAS 共同保证。
type Transaction struct {
	ID                string
	OrderID           string
	ProviderPaymentID string
	Result            VerificationResult
	RawPayload        []byte // 网关原始报文，留作对账与审计
	Reason            string
	CreatedAt         time.Time
}

func NewTransaction(orderID, providerPaymentID string, result VerificationResult, raw []byte, reason string) *Transaction {
	return &Transaction{
		ID:                uuid.New().String(),
		OrderID:           orderID,
		ProviderPaymentID: providerPaymentID,
		Result:            result,
		RawPayload:        raw,
		Reason:            reason,
		CreatedAt:         time.Now(),
	}
}
