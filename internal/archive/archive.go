package archive

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultStoreTimeout = 30 * time.Second

// Store persists a batch of gallery URLs under a bucket key.
type Store interface {
	SaveImageURLs(ctx context.Context, bucketKey string, urls []string) error
}

// Sink archives listing image URLs in the background. Archival never
// blocks or fails the request that triggered it; failures are only logged.
type Sink struct {
	store   Store
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewSink(store Store, logger *slog.Logger) *Sink {
	return &Sink{
		store:   store,
		logger:  logger.With("component", "archive"),
		timeout: defaultStoreTimeout,
	}
}

// BucketKey derives a short opaque grouping key from the listing title.
// The timestamp and random salt keep repeat scrapes of the same listing in
// separate buckets.
func BucketKey(title string) string {
	seed := fmt.Sprintf("%s%d%s", title, time.Now().UnixNano(), uuid.NewString())
	sum := md5.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])[:16]
}

// Archive dispatches a background save of urls under bucketKey. It returns
// immediately; the save runs on its own context so it survives the request
// that spawned it.
func (s *Sink) Archive(urls []string, bucketKey string) {
	if s == nil || s.store == nil || len(urls) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.store.SaveImageURLs(ctx, bucketKey, urls); err != nil {
			s.logger.Warn("failed to archive image urls",
				"bucket", bucketKey, "count", len(urls), "error", err)
			return
		}
		s.logger.Info("archived image urls", "bucket", bucketKey, "count", len(urls))
	}()
}

// Wait blocks until all in-flight archival goroutines finish. Called
// during shutdown.
func (s *Sink) Wait() {
	s.wg.Wait()
}
