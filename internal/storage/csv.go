package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/commercelens/commercelens/internal/errors"
)

// DatasetTables lists all dataset tables in load order. Referenced tables come
// before the tables that point at them.
var DatasetTables = []string{
	"customers",
	"sellers",
	"products",
	"geolocation",
	"category_translations",
	"orders",
	"order_items",
	"payments",
	"reviews",
	"seller_products",
}

// csvSpec binds a dataset table to its archive file and the SELECT list used
// to project CSV columns into table columns.
type csvSpec struct {
	Table string
	File  string

	// SelectList projects read_csv_auto output into the table's column order.
	SelectList string

	// Filter is an optional WHERE clause dropping rows the schema cannot hold.
	Filter string
}

// csvSpecs describes every file in the archive. Tables with a synthetic id
// column number their rows with row_number(); the products file carries the
// upstream "lenght" spelling, aliased away here.
var csvSpecs = []csvSpec{
	{
		Table: "customers",
		File:  "olist_customers_dataset.csv",
		SelectList: "customer_id, customer_unique_id, customer_zip_code_prefix, " +
			"customer_city, customer_state",
		Filter: "customer_id IS NOT NULL",
	},
	{
		Table:      "sellers",
		File:       "olist_sellers_dataset.csv",
		SelectList: "seller_id, seller_zip_code_prefix, seller_city, seller_state",
		Filter:     "seller_id IS NOT NULL",
	},
	{
		Table: "products",
		File:  "olist_products_dataset.csv",
		SelectList: "product_id, product_category_name, " +
			"product_name_lenght AS product_name_length, " +
			"product_description_lenght AS product_description_length, " +
			"product_photos_qty, product_weight_g, product_length_cm, " +
			"product_height_cm, product_width_cm",
		Filter: "product_id IS NOT NULL",
	},
	{
		Table: "geolocation",
		File:  "olist_geolocation_dataset.csv",
		SelectList: "row_number() OVER () AS id, geolocation_zip_code_prefix, " +
			"geolocation_lat, geolocation_lng, geolocation_city, geolocation_state",
	},
	{
		Table:      "category_translations",
		File:       "product_category_name_translation.csv",
		SelectList: "row_number() OVER () AS id, product_category_name, product_category_name_english",
		Filter:     "product_category_name IS NOT NULL",
	},
	{
		Table: "orders",
		File:  "olist_orders_dataset.csv",
		SelectList: "order_id, customer_id, order_status, order_purchase_timestamp, " +
			"order_approved_at, order_delivered_carrier_date, " +
			"order_delivered_customer_date, order_estimated_delivery_date",
		Filter: "order_id IS NOT NULL",
	},
	{
		Table: "order_items",
		File:  "olist_order_items_dataset.csv",
		SelectList: "row_number() OVER () AS id, order_id, order_item_id, product_id, " +
			"seller_id, shipping_limit_date, price, freight_value",
		Filter: "order_id IS NOT NULL",
	},
	{
		Table: "payments",
		File:  "olist_order_payments_dataset.csv",
		SelectList: "row_number() OVER () AS id, order_id, payment_sequential, " +
			"payment_type, payment_installments, payment_value",
		Filter: "order_id IS NOT NULL",
	},
	{
		Table: "reviews",
		File:  "olist_order_reviews_dataset.csv",
		SelectList: "row_number() OVER () AS id, review_id, order_id, review_score, " +
			"review_comment_title, review_comment_message, review_creation_date, " +
			"review_answer_timestamp",
		Filter: "order_id IS NOT NULL",
	},
}

// LoadResult summarizes one table's import.
type LoadResult struct {
	Table string
	File  string
	Rows  int64
}

// LoadArchive imports every CSV file from dir into its dataset table, then
// derives seller_products from the imported order items. Existing rows are
// cleared first so the load is repeatable.
func (r *Repository) LoadArchive(ctx context.Context, dir string) ([]LoadResult, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, errors.Newf(errors.ErrTypeIngest, "archive directory not found: %s", dir).
			WithSuggestion("Download the Olist dataset and unpack it into the archive directory").
			WithSuggestion("Point --archive (or COMMERCELENS_ARCHIVE_DIR) at the dataset")
	}

	for _, spec := range csvSpecs {
		path := filepath.Join(dir, spec.File)
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Newf(errors.ErrTypeIngest, "missing dataset file: %s", spec.File).
				WithSuggestion("The archive directory must contain all nine Olist CSV files")
		}
	}

	if err := r.Reset(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to clear existing data")
	}

	results := make([]LoadResult, 0, len(csvSpecs)+1)

	for _, spec := range csvSpecs {
		rows, err := r.loadCSV(ctx, dir, spec)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrTypeIngest,
				"failed to load %s into %s", spec.File, spec.Table)
		}

		results = append(results, LoadResult{Table: spec.Table, File: spec.File, Rows: rows})
	}

	derived, err := r.deriveSellerProducts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIngest, "failed to derive seller_products")
	}

	results = append(results, LoadResult{
		Table: "seller_products",
		File:  "(derived from order_items)",
		Rows:  derived,
	})

	return results, nil
}

// loadCSV imports one file using DuckDB's CSV reader. The path is embedded as
// a quoted literal since read_csv_auto does not accept bind parameters.
func (r *Repository) loadCSV(ctx context.Context, dir string, spec csvSpec) (int64, error) {
	path := filepath.Join(dir, spec.File)
	literal := strings.ReplaceAll(path, "'", "''")

	query := fmt.Sprintf(
		"INSERT INTO %s SELECT %s FROM read_csv_auto('%s', header=true)",
		spec.Table, spec.SelectList, literal,
	)
	if spec.Filter != "" {
		query += " WHERE " + spec.Filter
	}

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return rows, nil
}

// deriveSellerProducts fills the seller/product bridge table from the
// distinct pairs observed in order_items.
func (r *Repository) deriveSellerProducts(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO seller_products
		SELECT row_number() OVER () AS id, seller_id, product_id
		FROM (
			SELECT DISTINCT seller_id, product_id
			FROM order_items
			WHERE seller_id IS NOT NULL AND product_id IS NOT NULL
		)`

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return rows, nil
}
