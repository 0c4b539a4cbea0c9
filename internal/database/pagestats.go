// internal/database/pagestats.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spacedog-labs/wikiracer/internal/fault"
)

// LogArticleView bumps the view counter for an article title. Called on every
// navigation; failures here must never fail the navigation itself.
func (r *Repo) LogArticleView(ctx context.Context, title string) error {
	q := `INSERT INTO page_statistics (article, views) VALUES ($1, 1)
	      ON CONFLICT (article) DO UPDATE SET views = page_statistics.views + 1`
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, title)
		return err
	})
}

// LogArticleViews applies a batch of view events in one transaction. Titles
// may repeat within a batch; each occurrence counts.
func (r *Repo) LogArticleViews(ctx context.Context, titles []string) error {
	if len(titles) == 0 {
		return nil
	}
	counts := make(map[string]int, len(titles))
	for _, t := range titles {
		counts[t]++
	}
	q := `INSERT INTO page_statistics (article, views) VALUES ($1, $2)
	      ON CONFLICT (article) DO UPDATE SET views = page_statistics.views + EXCLUDED.views`
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for title, n := range counts {
			if _, err := tx.Exec(ctx, q, title, n); err != nil {
				return err
			}
		}
		return nil
	})
}

// TopArticles returns the most-viewed article titles, used to seed the random
// start/end pair on lobby creation.
func (r *Repo) TopArticles(ctx context.Context, limit int) ([]string, error) {
	q := `SELECT article FROM page_statistics ORDER BY views DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fault.Wrap(fault.Upstream, "page statistics read failed", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fault.Wrap(fault.Upstream, "page statistics scan failed", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}
