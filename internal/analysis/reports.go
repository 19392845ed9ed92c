// Package analysis provides fixed analytical reports over the dataset. Each
// report is a named, hand-written query; no language model is involved.
package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/commercelens/commercelens/internal/storage"
)

// Report is one canned analytical query.
type Report struct {
	Name        string
	Description string
	SQL         string
}

// reports in display order.
var reports = []Report{
	{
		Name:        "top-states",
		Description: "Order volume and revenue by customer state",
		SQL: `
			SELECT c.customer_state AS state,
			       COUNT(DISTINCT o.order_id) AS orders,
			       ROUND(SUM(oi.price), 2) AS revenue
			FROM orders o
			JOIN customers c ON c.customer_id = o.customer_id
			JOIN order_items oi ON oi.order_id = o.order_id
			GROUP BY c.customer_state
			ORDER BY revenue DESC
			LIMIT 15`,
	},
	{
		Name:        "top-categories",
		Description: "Best selling product categories by revenue",
		SQL: `
			SELECT COALESCE(ct.product_category_name_english, p.product_category_name) AS category,
			       COUNT(*) AS items_sold,
			       ROUND(SUM(oi.price), 2) AS revenue
			FROM order_items oi
			JOIN products p ON p.product_id = oi.product_id
			LEFT JOIN category_translations ct
			       ON ct.product_category_name = p.product_category_name
			GROUP BY category
			ORDER BY revenue DESC
			LIMIT 15`,
	},
	{
		Name:        "monthly-trend",
		Description: "Monthly order volume and revenue over time",
		SQL: `
			SELECT strftime(o.order_purchase_timestamp, '%Y-%m') AS month,
			       COUNT(DISTINCT o.order_id) AS orders,
			       ROUND(SUM(oi.price), 2) AS revenue
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.order_id
			GROUP BY month
			ORDER BY month`,
	},
	{
		Name:        "payment-mix",
		Description: "Distribution of payment types and installment usage",
		SQL: `
			SELECT payment_type,
			       COUNT(*) AS payments,
			       ROUND(SUM(payment_value), 2) AS total_value,
			       ROUND(AVG(payment_installments), 1) AS avg_installments
			FROM payments
			GROUP BY payment_type
			ORDER BY total_value DESC`,
	},
	{
		Name:        "review-scores",
		Description: "Review score distribution with share of total",
		SQL: `
			SELECT review_score,
			       COUNT(*) AS reviews,
			       ROUND(100.0 * COUNT(*) / SUM(COUNT(*)) OVER (), 1) AS percent
			FROM reviews
			GROUP BY review_score
			ORDER BY review_score DESC`,
	},
	{
		Name:        "delivery-performance",
		Description: "Actual versus estimated delivery time by month",
		SQL: `
			SELECT strftime(order_purchase_timestamp, '%Y-%m') AS month,
			       COUNT(*) AS delivered_orders,
			       ROUND(AVG(date_diff('day', order_purchase_timestamp, order_delivered_customer_date)), 1) AS avg_days,
			       ROUND(AVG(date_diff('day', order_delivered_customer_date, order_estimated_delivery_date)), 1) AS avg_days_early
			FROM orders
			WHERE order_status = 'delivered'
			  AND order_delivered_customer_date IS NOT NULL
			GROUP BY month
			ORDER BY month`,
	},
}

// Executor runs report queries. *storage.Repository satisfies it.
type Executor interface {
	ExecuteQuery(ctx context.Context, query string) (*storage.ResultSet, error)
}

// Runner executes canned reports against the database.
type Runner struct {
	executor Executor
}

// NewRunner builds a report runner.
func NewRunner(executor Executor) *Runner {
	return &Runner{executor: executor}
}

// List returns available reports sorted by name.
func List() []Report {
	out := make([]Report, len(reports))
	copy(out, reports)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Lookup finds a report by name.
func Lookup(name string) (Report, error) {
	for _, r := range reports {
		if r.Name == name {
			return r, nil
		}
	}

	return Report{}, fmt.Errorf("unknown report: %s", name)
}

// Run executes the named report.
func (r *Runner) Run(ctx context.Context, name string) (*storage.ResultSet, error) {
	report, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	return r.executor.ExecuteQuery(ctx, report.SQL)
}
