package adapter

import (
	"context"
	"errors"

	catalogapp "saregare/internal/service/catalog/application"
	catalogdomain "saregare/internal/service/catalog/domain"
	"saregare/internal/service/checkout/domain"
	"saregare/internal/service/checkout/domain/port"
)

// CatalogAdapter 把商品目录服务适配到结账侧的 ProductCatalog 端口。
type CatalogAdapter struct {
	catalog *catalogapp.CatalogService
}

func NewCatalogAdapter(catalog *catalogapp.CatalogService) *CatalogAdapter {
	return &CatalogAdapter{catalog: catalog}
}

func (a *CatalogAdapter) Get(ctx context.Context, productID string) (*port.ProductInfo, error) {
	p, err := a.catalog.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, catalogdomain.ErrProductNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	if !p.Active {
		// 已下架的商品对结账不可见
		return nil, domain.ErrProductNotFound
	}
	return &port.ProductInfo{
		ID:         p.ID,
		Title:      p.Title,
		Genre:      p.Genre,
		OwnerEmail: p.OwnerEmail,
		Active:     p.Active,
	}, nil
}

func (a *CatalogAdapter) PriceFor(ctx context.Context, productID string, tier domain.LicenseTier) (int64, bool, error) {
	p, err := a.catalog.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, catalogdomain.ErrProductNotFound) {
			return 0, false, domain.ErrProductNotFound
		}
		return 0, false, err
	}
	amount, ok := p.PriceFor(string(tier))
	return amount, ok, nil
}
