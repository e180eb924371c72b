package store

import (
	"context"

	"github.com/thep200/devfolio-sync/internal/model"
)

// MysqlStore keeps a copy of the record set in the portfolios table.
type MysqlStore struct {
	Md *model.PortfolioMd
}

func NewMysqlStore(md *model.PortfolioMd) *MysqlStore {
	return &MysqlStore{Md: md}
}

func (s *MysqlStore) Load(ctx context.Context) ([]model.Portfolio, error) {
	portfolios, err := s.Md.List(ctx)
	if err != nil {
		return nil, err
	}
	model.SortByUsername(portfolios)
	return portfolios, nil
}

func (s *MysqlStore) Save(ctx context.Context, portfolios []model.Portfolio) error {
	return s.Md.ReplaceAll(ctx, portfolios)
}
