package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ArchivedImage is one stored gallery photo URL, grouped by the bucket key
// of the listing it came from.
type ArchivedImage struct {
	ID        int64     `json:"id"`
	BucketKey string    `json:"bucketKey"`
	URL       string    `json:"url"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// SavedAnalysis is a completed analysis kept for later retrieval.
type SavedAnalysis struct {
	ID         int64           `json:"id"`
	ListingURL string          `json:"listingUrl"`
	BucketKey  string          `json:"bucketKey"`
	Title      string          `json:"title"`
	Result     json.RawMessage `json:"result"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Init creates the archive schema if it does not exist. It is safe to call
// on every startup.
func (db *DB) Init(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS archived_images (
			id BIGSERIAL PRIMARY KEY,
			bucket_key TEXT NOT NULL,
			url TEXT NOT NULL,
			position INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_archived_images_bucket ON archived_images (bucket_key)`,
		`CREATE TABLE IF NOT EXISTS saved_analyses (
			id BIGSERIAL PRIMARY KEY,
			listing_url TEXT NOT NULL,
			bucket_key TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			result JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_analyses_url ON saved_analyses (listing_url)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

// SaveImageURLs stores the gallery URLs for one listing under its bucket
// key, preserving gallery order.
func (db *DB) SaveImageURLs(ctx context.Context, bucketKey string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	return db.Transaction(ctx, func(tx pgx.Tx) error {
		for i, url := range urls {
			_, err := tx.Exec(ctx,
				`INSERT INTO archived_images (bucket_key, url, position) VALUES ($1, $2, $3)`,
				bucketKey, url, i)
			if err != nil {
				return fmt.Errorf("failed to insert archived image: %w", err)
			}
		}
		return nil
	})
}

// ListByBucket returns the archived image URLs for one bucket in gallery
// order.
func (db *DB) ListByBucket(ctx context.Context, bucketKey string) ([]ArchivedImage, error) {
	rows, err := db.Query(ctx,
		`SELECT id, bucket_key, url, position, created_at
		 FROM archived_images
		 WHERE bucket_key = $1
		 ORDER BY position ASC`,
		bucketKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived images: %w", err)
	}
	defer rows.Close()

	var images []ArchivedImage
	for rows.Next() {
		var img ArchivedImage
		if err := rows.Scan(&img.ID, &img.BucketKey, &img.URL, &img.Position, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archived image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// RecentBuckets lists the most recently archived buckets with their image
// counts.
func (db *DB) RecentBuckets(ctx context.Context, limit int) ([]BucketSummary, error) {
	rows, err := db.Query(ctx,
		`SELECT bucket_key, COUNT(*), MAX(created_at)
		 FROM archived_images
		 GROUP BY bucket_key
		 ORDER BY MAX(created_at) DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query buckets: %w", err)
	}
	defer rows.Close()

	var buckets []BucketSummary
	for rows.Next() {
		var b BucketSummary
		if err := rows.Scan(&b.BucketKey, &b.ImageCount, &b.LastArchived); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

type BucketSummary struct {
	BucketKey    string    `json:"bucketKey"`
	ImageCount   int       `json:"imageCount"`
	LastArchived time.Time `json:"lastArchived"`
}

// SaveAnalysis stores a completed analysis keyed by listing URL.
func (db *DB) SaveAnalysis(ctx context.Context, a *SavedAnalysis) error {
	_, err := db.Exec(ctx,
		`INSERT INTO saved_analyses (listing_url, bucket_key, title, result)
		 VALUES ($1, $2, $3, $4)`,
		a.ListingURL, a.BucketKey, a.Title, a.Result)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}
