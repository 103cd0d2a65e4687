package port

import (
	"context"

	"saregare/internal/service/checkout/domain"
)

// ProductInfo 是结账流程需要的商品最小视图。
type ProductInfo struct {
	ID         string
	Title      string
	Genre      string
	OwnerEmail string
	Active     bool
}

// ProductCatalog 是结账服务对商品目录的出站端口。
type ProductCatalog interface {
	// Get 返回商品信息，不存在或已下架返回 ErrProductNotFound。
	Get(ctx context.Context, productID string) (*ProductInfo, error)

	// PriceFor 返回某档位的价格（最小货币单位）。该档位没有定价时
	// ok 为 false，调用方据此报 ErrInvalidLicense。
	PriceFor(ctx context.Context, productID string, tier domain.LicenseTier) (amount int64, ok bool, err error)
}
