package catalog

import (
	"database/sql"
	"strings"

	"github.com/pearcestephens/catalogmatch/internal/domain"
)

// productColumns are the columns read from the products table, in scan order
var productColumns = []string{
	"id", "sku", "name", "brand", "model",
	"flavor", "nicotine", "variant", "color", "size", "capacity",
	"image_url",
}

// productRow is one row of the products table. Everything except the key is nullable.
type productRow struct {
	ID       sql.NullString `db:"id"`
	SKU      sql.NullString `db:"sku"`
	Name     sql.NullString `db:"name"`
	Brand    sql.NullString `db:"brand"`
	Model    sql.NullString `db:"model"`
	Flavor   sql.NullString `db:"flavor"`
	Nicotine sql.NullString `db:"nicotine"`
	Variant  sql.NullString `db:"variant"`
	Color    sql.NullString `db:"color"`
	Size     sql.NullString `db:"size"`
	Capacity sql.NullString `db:"capacity"`
	ImageURL sql.NullString `db:"image_url"`
}

// mapToCatalogEntry converts a products row to our domain CatalogEntry model.
// NULL columns become empty strings, which the matcher treats as absent.
func mapToCatalogEntry(row productRow) domain.CatalogEntry {
	return domain.CatalogEntry{
		ID:       text(row.ID),
		SKU:      text(row.SKU),
		Name:     text(row.Name),
		Brand:    text(row.Brand),
		Model:    text(row.Model),
		ImageURL: text(row.ImageURL),
		Attributes: domain.Attributes{
			Flavor:   text(row.Flavor),
			Nicotine: text(row.Nicotine),
			Variant:  text(row.Variant),
			Color:    text(row.Color),
			Size:     text(row.Size),
			Capacity: text(row.Capacity),
		},
	}
}

func text(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return strings.TrimSpace(s.String)
}
