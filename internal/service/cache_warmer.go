package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/alumni-directory/internal/models"
	"github.com/noah-isme/alumni-directory/pkg/jobs"
)

type cardFilterer interface {
	Filter(ctx context.Context, req models.FilterRequest) ([]models.Card, bool, error)
	Options(ctx context.Context) (*models.FilterOptions, error)
}

// CacheWarmer pre-computes the single-dimension filter results so the first
// dropdown click after a deploy is served from Redis.
type CacheWarmer struct {
	cards   cardFilterer
	workers int
	logger  *zap.Logger
}

// NewCacheWarmer constructs a warmer running at most workers filters concurrently.
func NewCacheWarmer(cards cardFilterer, workers int, logger *zap.Logger) *CacheWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheWarmer{cards: cards, workers: workers, logger: logger}
}

// Warm fills the cache for the unfiltered listing and for every dropdown value.
func (w *CacheWarmer) Warm(ctx context.Context) (jobs.Stats, error) {
	opts, err := w.cards.Options(ctx)
	if err != nil {
		return jobs.Stats{}, err
	}

	start := time.Now()
	queue := jobs.NewQueue("cache-warmup", w.handle, jobs.QueueConfig{
		Workers:    w.workers,
		MaxRetries: 1,
		Logger:     w.logger,
	})
	queue.Start(ctx)

	var enqueueErr error
	for _, filter := range warmupFilters(opts) {
		job := jobs.Job{ID: fmt.Sprintf("%s|%s|%s", filter.Department, filter.Course, filter.YearOfPassing), Payload: filter}
		if enqueueErr = queue.Enqueue(ctx, job); enqueueErr != nil {
			break
		}
	}
	stats := queue.Close()

	w.logger.Info("cache warmed",
		zap.Int64("succeeded", stats.Succeeded),
		zap.Int64("failed", stats.Failed),
		zap.Duration("took", time.Since(start)),
	)
	return stats, enqueueErr
}

func (w *CacheWarmer) handle(ctx context.Context, job jobs.Job) error {
	filter, ok := job.Payload.(models.FilterRequest)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	_, _, err := w.cards.Filter(ctx, filter)
	return err
}

func warmupFilters(opts *models.FilterOptions) []models.FilterRequest {
	filters := []models.FilterRequest{{}}
	if opts == nil {
		return filters
	}
	for _, dept := range opts.Departments {
		filters = append(filters, models.FilterRequest{Department: dept})
	}
	for _, course := range opts.Courses {
		filters = append(filters, models.FilterRequest{Course: course})
	}
	for _, year := range opts.PassingYears {
		filters = append(filters, models.FilterRequest{YearOfPassing: year})
	}
	return filters
}
