package application

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"saregare/internal/service/catalog/domain"
)

// CatalogService 提供商城的商品查询能力。
type CatalogService struct {
	repo   domain.Repository
	tracer trace.Tracer
}

func NewCatalogService(repo domain.Repository, tracer trace.Tracer) *CatalogService {
	return &CatalogService{repo: repo, tracer: tracer}
}

// ListActive 返回全部在售商品，按上架时间倒序。
func (s *CatalogService) ListActive(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.ListActive")
	defer span.End()
	return s.repo.ListActive(ctx)
}

// Get 返回单个商品，不存在时返回 ErrProductNotFound。
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Get")
	defer span.End()
	return s.repo.FindByID(ctx, id)
}
