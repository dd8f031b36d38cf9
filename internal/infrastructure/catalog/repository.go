// Package catalog reads the canonical product catalog from PostgreSQL or SQLite.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/pearcestephens/catalogmatch/internal/domain"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultTable is the table holding catalog products
const DefaultTable = "products"

// Open connects to the catalog database and verifies the connection
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if _, err := flavorFor(driver); err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty %s dsn", domain.ErrCatalogUnavailable, driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		// An in-memory SQLite database exists per connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	return db, nil
}

func flavorFor(driver string) (sqlbuilder.Flavor, error) {
	switch driver {
	case DriverPostgres:
		return sqlbuilder.PostgreSQL, nil
	case DriverSQLite:
		return sqlbuilder.SQLite, nil
	default:
		return 0, fmt.Errorf("unsupported catalog driver %q", driver)
	}
}

// Repository reads active catalog entries
type Repository struct {
	db     *sqlx.DB
	flavor sqlbuilder.Flavor
	table  string
	logger *zap.Logger
}

// NewRepository creates a new catalog repository over db. An empty table uses DefaultTable.
func NewRepository(db *sqlx.DB, table string, logger *zap.Logger) (*Repository, error) {
	flavor, err := flavorFor(db.DriverName())
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = DefaultTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		db:     db,
		flavor: flavor,
		table:  table,
		logger: logger,
	}, nil
}

// ListActive retrieves every active catalog entry ordered by id
func (r *Repository) ListActive(ctx context.Context) ([]domain.CatalogEntry, error) {
	sb := r.flavor.NewSelectBuilder()
	sb.Select(productColumns...)
	sb.From(r.table)
	sb.Where(sb.Equal("active", true))
	sb.OrderBy("id")

	query, args := sb.Build()

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.Error("failed to list active catalog entries", zap.String("table", r.table), zap.Error(err))
		return nil, fmt.Errorf("list active products: %w", err)
	}

	entries := make([]domain.CatalogEntry, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		entry := mapToCatalogEntry(row)
		if entry.ID == "" || entry.Name == "" {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}

	if skipped > 0 {
		r.logger.Warn("skipped catalog rows without id or name", zap.Int("skipped", skipped))
	}
	r.logger.Debug("listed active catalog entries", zap.Int("count", len(entries)))
	return entries, nil
}
