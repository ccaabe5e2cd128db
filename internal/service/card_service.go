package service

import (
	"context"
	"crypto/sha1" //nolint:gosec // cache key only
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-directory/internal/models"
	appErrors "github.com/noah-isme/alumni-directory/pkg/errors"
)

const (
	cardsCachePrefix   = "cards:"
	profileCachePrefix = "profile:"
	optionsCacheKey    = "options"
)

type cardRepository interface {
	List(ctx context.Context, filter models.FilterRequest) ([]models.DirectoryCard, error)
	Options(ctx context.Context) (*models.FilterOptions, error)
	FindProfile(ctx context.Context, id int64) (*models.Profile, error)
}

// CardService answers directory listing, dropdown and profile queries.
type CardService struct {
	repo      cardRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCardService constructs the card service. cache and metrics may be nil.
func NewCardService(repo cardRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Filter returns the cards of verified users matching the request. The slice is never nil.
// The boolean reports a cache hit.
func (s *CardService) Filter(ctx context.Context, req models.FilterRequest) ([]models.Card, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter payload")
	}

	key := cardsCachePrefix + filterKey(req)
	var cached []models.Card
	if hit, _ := s.cache.Get(ctx, key, &cached); hit && cached != nil {
		s.metrics.ObserveFilterResults(len(cached))
		return cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.List(ctx, req)
	s.metrics.ObserveDBQuery("filter_cards", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to filter cards")
	}

	cards := make([]models.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, toCard(row))
	}
	s.metrics.ObserveFilterResults(len(cards))
	s.logger.Debug("cards filtered",
		zap.String("department", req.Department),
		zap.String("course", req.Course),
		zap.String("year_of_passing", req.YearOfPassing),
		zap.Int("results", len(cards)),
	)

	_ = s.cache.Set(ctx, key, cards, 0)
	return cards, false, nil
}

// Options returns the distinct dropdown values.
func (s *CardService) Options(ctx context.Context) (*models.FilterOptions, error) {
	var cached models.FilterOptions
	if hit, _ := s.cache.Get(ctx, optionsCacheKey, &cached); hit {
		return &cached, nil
	}

	start := time.Now()
	opts, err := s.repo.Options(ctx)
	s.metrics.ObserveDBQuery("filter_options", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load filter options")
	}

	_ = s.cache.Set(ctx, optionsCacheKey, opts, 0)
	return opts, nil
}

// Profile returns the profile behind a card link. The boolean reports a cache hit.
func (s *CardService) Profile(ctx context.Context, rawID string) (*models.Profile, bool, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
	}

	key := profileCachePrefix + strconv.FormatInt(id, 10)
	var cached models.Profile
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	start := time.Now()
	profile, err := s.repo.FindProfile(ctx, id)
	s.metrics.ObserveDBQuery("find_profile", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	profile.Image = encodeImage(profile.UserImage)

	_ = s.cache.Set(ctx, key, profile, 0)
	return profile, false, nil
}

// FlushCache drops every cached directory payload.
func (s *CardService) FlushCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx, "*")
}

func toCard(row models.DirectoryCard) models.Card {
	return models.Card{
		ID:          models.FlexString(strconv.FormatInt(row.ID, 10)),
		Name:        models.FlexString(row.Name),
		Course:      models.FlexString(models.StringValue(row.Course)),
		Department:  models.FlexString(models.StringValue(row.Department)),
		PassingYear: models.FlexString(models.Int64String(row.PassingYear)),
		UserImage:   models.FlexString(encodeImage(row.UserImage)),
	}
}

func encodeImage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func filterKey(req models.FilterRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha1.Sum(payload) //nolint:gosec // cache key only
	return hex.EncodeToString(sum[:])
}
