package rule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saregare/internal/pkg/bootstrap"
	"saregare/internal/service/checkout/domain/port"
)

func classicalFact() port.CheckoutFact {
	return port.CheckoutFact{
		BuyerID:   "buyer-1",
		ProductID: "track-1",
		Genre:     "classical",
		Tier:      "premium",
		Amount:    150000,
	}
}

func TestCELEngine_FirstMatchWins(t *testing.T) {
	engine, err := NewCELPromotionEngine([]bootstrap.PromotionRule{
		{Name: "classical-week", Expr: `genre == "classical"`, DiscountPaise: 10000},
		{Name: "big-spender", Expr: `amount >= 100000`, DiscountPaise: 20000},
	})
	require.NoError(t, err)

	discount, name := engine.Discount(context.Background(), classicalFact())
	assert.Equal(t, int64(10000), discount)
	assert.Equal(t, "classical-week", name)
}

func TestCELEngine_NoMatch(t *testing.T) {
	engine, err := NewCELPromotionEngine([]bootstrap.PromotionRule{
		{Name: "exclusive-only", Expr: `tier == "exclusive"`, DiscountPaise: 50000},
	})
	require.NoError(t, err)

	discount, name := engine.Discount(context.Background(), classicalFact())
	assert.Zero(t, discount)
	assert.Empty(t, name)
}

func TestCELEngine_SkipsInvalidRules(t *testing.T) {
	engine, err := NewCELPromotionEngine([]bootstrap.PromotionRule{
		{Name: "broken-syntax", Expr: `genre == `, DiscountPaise: 10000},
		{Name: "not-boolean", Expr: `amount + 1`, DiscountPaise: 10000},
		{Name: "works", Expr: `genre == "classical" && amount > 100000`, DiscountPaise: 5000},
	})
	require.NoError(t, err)

	discount, name := engine.Discount(context.Background(), classicalFact())
	assert.Equal(t, int64(5000), discount)
	assert.Equal(t, "works", name)
}

func TestCELEngine_EmptyRuleSet(t *testing.T) {
	engine, err := NewCELPromotionEngine(nil)
	require.NoError(t, err)

	discount, name := engine.Discount(context.Background(), classicalFact())
	assert.Zero(t, discount)
	assert.Empty(t, name)
}
