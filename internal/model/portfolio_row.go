package model

import (
	"context"
	"fmt"
	"time"

	"github.com/thep200/devfolio-sync/cfg"
	"github.com/thep200/devfolio-sync/pkg/db"
	"github.com/thep200/devfolio-sync/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PortfolioRow mirrors a Portfolio in MySQL.
type PortfolioRow struct {
	ID            uint      `gorm:"column:id;primaryKey"`
	Username      string    `gorm:"column:username;type:varchar(255);uniqueIndex;not null"`
	Name          string    `gorm:"column:name;type:varchar(255)"`
	PortfolioLink string    `gorm:"column:portfolio_link;type:varchar(1024)"`
	Followers     int       `gorm:"column:followers;default:0"`
	Stars         int       `gorm:"column:stars;default:0"`
	Popularity    int       `gorm:"column:popularity;default:0;index"`
	LastFetched   int64     `gorm:"column:last_fetched;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
}

func (PortfolioRow) TableName() string {
	return "portfolios"
}

func NewPortfolioRow(p Portfolio) PortfolioRow {
	return PortfolioRow{
		Username:      TruncateString(p.Username, 250),
		Name:          TruncateString(p.Name, 250),
		PortfolioLink: TruncateString(p.PortfolioLink, 1000),
		Followers:     p.Followers,
		Stars:         p.Stars,
		Popularity:    ComputePopularity(p.Followers, p.Stars),
		LastFetched:   p.LastFetched,
	}
}

func (r PortfolioRow) Portfolio() Portfolio {
	return Portfolio{
		Name:          r.Name,
		Username:      r.Username,
		PortfolioLink: r.PortfolioLink,
		Followers:     r.Followers,
		Stars:         r.Stars,
		Popularity:    r.Popularity,
		LastFetched:   r.LastFetched,
	}
}

// PortfolioMd reads and writes the MySQL mirror.
type PortfolioMd struct {
	Model
}

func NewPortfolioMd(config *cfg.Config, logger log.Logger, mysql *db.Mysql) (*PortfolioMd, error) {
	return &PortfolioMd{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  mysql,
		},
	}, nil
}

func (m *PortfolioMd) Migrate() error {
	return m.Mysql.Migrate(&PortfolioRow{})
}

// CreateBatch upserts records keyed by username. lastFetched is only moved forward.
func (m *PortfolioMd) CreateBatch(ctx context.Context, portfolios []Portfolio) error {
	if len(portfolios) == 0 {
		return nil
	}

	conn, err := m.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	rows := newPortfolioRows(portfolios, time.Now())
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertRows(tx, rows)
	})
}

// ReplaceAll makes the mirror hold exactly the given records. The upsert
// and the prune commit together.
func (m *PortfolioMd) ReplaceAll(ctx context.Context, portfolios []Portfolio) error {
	conn, err := m.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	rows := newPortfolioRows(portfolios, time.Now())
	keep := rowUsernames(rows)

	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertRows(tx, rows); err != nil {
			return err
		}

		prune := tx.Where("1 = 1")
		if len(keep) > 0 {
			prune = tx.Where("username NOT IN ?", keep)
		}
		if err := prune.Delete(&PortfolioRow{}).Error; err != nil {
			return fmt.Errorf("failed to prune portfolios: %w", err)
		}
		return nil
	})
}

func newPortfolioRows(portfolios []Portfolio, now time.Time) []PortfolioRow {
	rows := make([]PortfolioRow, 0, len(portfolios))
	for _, p := range portfolios {
		row := NewPortfolioRow(p)
		row.CreatedAt = now
		row.UpdatedAt = now
		rows = append(rows, row)
	}
	return rows
}

// rowUsernames returns the usernames exactly as they are stored.
func rowUsernames(rows []PortfolioRow) []string {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Username)
	}
	return names
}

func upsertRows(tx *gorm.DB, rows []PortfolioRow) error {
	if len(rows) == 0 {
		return nil
	}
	result := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "username"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":           gorm.Expr("VALUES(name)"),
			"portfolio_link": gorm.Expr("VALUES(portfolio_link)"),
			"followers":      gorm.Expr("VALUES(followers)"),
			"stars":          gorm.Expr("VALUES(stars)"),
			"popularity":     gorm.Expr("VALUES(popularity)"),
			"last_fetched":   gorm.Expr("GREATEST(last_fetched, VALUES(last_fetched))"),
			"updated_at":     gorm.Expr("VALUES(updated_at)"),
		}),
	}).CreateInBatches(rows, 100)

	if result.Error != nil {
		return fmt.Errorf("failed to batch upsert portfolios: %w", result.Error)
	}
	return nil
}

// List returns every mirrored record ordered by username.
func (m *PortfolioMd) List(ctx context.Context) ([]Portfolio, error) {
	conn, err := m.Mysql.Db()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	var rows []PortfolioRow
	if err := conn.WithContext(ctx).Order("username ASC").Find(&rows).Error; err != nil {
		m.Logger.Error(ctx, "Failed to list portfolios: %v", err)
		return nil, err
	}

	portfolios := make([]Portfolio, 0, len(rows))
	for _, row := range rows {
		portfolios = append(portfolios, row.Portfolio())
	}
	return portfolios, nil
}
