package repository

import (
	"cleanny-dispatch/common/contract"
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/model"
	"cleanny-dispatch/outbound/sqlgen"
	"context"
)

type CatalogRepository struct {
	Querier *sqlgen.Queries
}

func NewCatalogRepository(db contract.DbConn) *CatalogRepository {
	return &CatalogRepository{Querier: sqlgen.New(db)}
}

func (r *CatalogRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.Querier.ListServices(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list services")
	}

	services := make([]model.Service, 0, len(rows))
	for _, row := range rows {
		services = append(services, model.Service{
			ID:       row.ID,
			Name:     row.Name,
			Kind:     model.ServiceKind(row.Kind),
			Price:    row.Price,
			LeadTime: row.LeadTime,
		})
	}

	return services, nil
}

func (r *CatalogRepository) ListActive(ctx context.Context) ([]model.Discount, error) {
	rows, err := r.Querier.ListActiveDiscounts(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list discounts")
	}

	discounts := make([]model.Discount, 0, len(rows))
	for _, row := range rows {
		discounts = append(discounts, model.Discount{
			ID:           row.ID,
			MinFrequency: row.MinFrequency,
			Percent:      row.Percent,
			Active:       row.Active,
		})
	}

	return discounts, nil
}
