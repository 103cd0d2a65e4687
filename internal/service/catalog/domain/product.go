package domain

import (
	"context"
	"errors"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

// Product 是商城里的一个可售作品（beat/track）。
// 三个档位的价格都以最小货币单位存储，nil 表示该档位不出售——
// 例如已经独家售出的作品不再挂 exclusive 价。
type Product struct {
	ID             string
	Title          string
	Genre          string
	OwnerEmail     string
	PreviewURL     string
	BasicPrice     *int64
	PremiumPrice   *int64
	ExclusivePrice *int64
	Active         bool
	CreatedAt      time.Time
}

// PriceFor 返回某授权档位的价格。该档位未定价时 ok 为 false。
func (p *Product) PriceFor(tier string) (int64, bool) {
	var price *int64
	switch tier {
	case "basic":
		price = p.BasicPrice
	case "premium":
		price = p.PremiumPrice
	case "exclusive":
		price = p.ExclusivePrice
	}
	if price == nil {
		return 0, false
	}
	return *price, true
}

// Repository 定义商品目录的持久化接口。
type Repository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	ListActive(ctx context.Context) ([]*Product, error)
}
