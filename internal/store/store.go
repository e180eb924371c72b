// Package store persists the portfolio record set.
package store

import (
	"context"

	"github.com/thep200/devfolio-sync/internal/model"
)

// Store reads and replaces the whole record set at once.
type Store interface {
	Load(ctx context.Context) ([]model.Portfolio, error)
	Save(ctx context.Context, portfolios []model.Portfolio) error
}
