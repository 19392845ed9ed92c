// Package export extracts review text with order context into CSV files for
// downstream text analysis.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/commercelens/commercelens/internal/storage"
)

// reviewQuery joins reviews with their order and product category so exported
// comments carry context. Reviews without any comment text are skipped.
const reviewQuery = `
	SELECT r.review_id,
	       r.order_id,
	       r.review_score,
	       COALESCE(r.review_comment_title, '') AS title,
	       COALESCE(r.review_comment_message, '') AS message,
	       COALESCE(ct.product_category_name_english, p.product_category_name, '') AS category,
	       o.order_status,
	       CAST(r.review_creation_date AS VARCHAR) AS created_at
	FROM reviews r
	JOIN orders o ON o.order_id = r.order_id
	LEFT JOIN order_items oi ON oi.order_id = r.order_id AND oi.order_item_id = 1
	LEFT JOIN products p ON p.product_id = oi.product_id
	LEFT JOIN category_translations ct
	       ON ct.product_category_name = p.product_category_name
	WHERE COALESCE(r.review_comment_message, '') <> ''
	   OR COALESCE(r.review_comment_title, '') <> ''
	ORDER BY r.review_creation_date`

// Executor runs the export query. *storage.Repository satisfies it.
type Executor interface {
	ExecuteQuery(ctx context.Context, query string) (*storage.ResultSet, error)
}

// Reviews writes commented reviews to a CSV file at path and returns the
// number of exported rows. A positive limit caps the export.
func Reviews(ctx context.Context, executor Executor, path string, limit int) (int, error) {
	query := reviewQuery
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rs, err := executor.ExecuteQuery(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("review export query failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(rs.Columns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range rs.Rows {
		if err := w.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush export file: %w", err)
	}

	return len(rs.Rows), nil
}
