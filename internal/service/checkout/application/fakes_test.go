package application

import (
	"context"
	"encoding/json"
	"sync"

	"saregare/internal/service/checkout/domain"
	"saregare/internal/service/checkout/domain/port"
)

// memOrderRepo 是内存版订单仓储，UpdateStatus 的 CAS 语义与
// GORM 实现一致。
type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *memOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, id string, from, to domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !from.CanTransitionTo(to) {
		return domain.ErrInvalidTransition
	}
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if order.Status != from {
		return domain.ErrInvalidTransition
	}
	order.Status = to
	return nil
}

type memTxRepo struct {
	mu  sync.Mutex
	txs []*domain.Transaction
}

func (r *memTxRepo) Record(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, tx)
	return nil
}

func (r *memTxRepo) ListByOrder(_ context.Context, orderID string) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Transaction
	for _, tx := range r.txs {
		if tx.OrderID == orderID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memTxRepo) CountVerified(_ context.Context, orderID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, tx := range r.txs {
		if tx.OrderID == orderID && tx.Result == domain.VerificationVerified {
			n++
		}
	}
	return n, nil
}

// fakeGateway 的回调报文就是 port.Callback 的 JSON；验签规则是
// Signature 必须等于 "valid-signature"。
type fakeGateway struct {
	name       string
	configured bool
	initErr    error
	initiated  int
}

func (g *fakeGateway) Name() string     { return g.name }
func (g *fakeGateway) Configured() bool { return g.configured }

func (g *fakeGateway) InitiatePayment(_ context.Context, req *port.InitiateRequest) (*port.Handle, error) {
	g.initiated++
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &port.Handle{
		Gateway:        g.name,
		CheckoutKey:    "key_test",
		GatewayOrderID: "gw_" + req.Order.ID,
		Amount:         req.Order.Amount,
		Currency:       req.Order.Currency,
	}, nil
}

func (g *fakeGateway) ParseCallback(raw []byte) (*port.Callback, error) {
	var cb port.Callback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, err
	}
	cb.Raw = raw
	return &cb, nil
}

func (g *fakeGateway) VerifySignature(cb *port.Callback) error {
	if cb.Signature != "valid-signature" {
		return domain.ErrSignatureInvalid
	}
	return nil
}

type stubCatalog struct {
	products map[string]*port.ProductInfo
	prices   map[string]map[domain.LicenseTier]int64
}

func (c *stubCatalog) Get(_ context.Context, productID string) (*port.ProductInfo, error) {
	p, ok := c.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (c *stubCatalog) PriceFor(_ context.Context, productID string, tier domain.LicenseTier) (int64, bool, error) {
	tiers, ok := c.prices[productID]
	if !ok {
		return 0, false, domain.ErrProductNotFound
	}
	amount, ok := tiers[tier]
	return amount, ok, nil
}

type memNotifier struct {
	mu     sync.Mutex
	events []*domain.OrderStatusChanged
}

func (n *memNotifier) PublishStatus(_ context.Context, event *domain.OrderStatusChanged) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

type noopLocker struct{}

func (noopLocker) WithLock(_ context.Context, _ string, fn func() error) error {
	return fn()
}

type fixedPromo struct {
	discount int64
	name     string
}

func (p fixedPromo) Discount(_ context.Context, _ port.CheckoutFact) (int64, string) {
	return p.discount, p.name
}
