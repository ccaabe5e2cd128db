package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCacheRepo struct{ err error }

func (f failingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error { return f.err }
func (f failingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return f.err
}
func (f failingCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error { return f.err }

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), false)
	assert.False(t, svc.Enabled())

	var dest string
	hit, err := svc.Get(context.Background(), "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.Set(context.Background(), "k", "v", 0))
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	svc := NewCacheService(newMemoryCacheRepo(), NewMetricsService(), 0, nil, true)
	ctx := context.Background()

	var dest string
	hit, err := svc.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", "v", 0))
	hit, err = svc.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v", dest)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	boom := errors.New("redis down")
	svc := NewCacheService(failingCacheRepo{err: boom}, nil, time.Minute, nil, true)
	ctx := context.Background()

	var dest string
	hit, err := svc.Get(ctx, "k", &dest)
	assert.False(t, hit)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Set(ctx, "k", "v", 0), boom)
	assert.ErrorIs(t, svc.Invalidate(ctx, "*"), boom)
}
