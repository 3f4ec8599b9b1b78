package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/repositories"
)

const (
	DefaultCategoryCacheTTL     = 5 * time.Minute
	defaultCategoryCacheCleanup = 10 * time.Minute
)

// TournamentProvider gives read access to categories and their tournaments,
// which are owned by the tournament lifecycle module.
type TournamentProvider interface {
	GetCategory(ctx context.Context, categoryID int) (*models.TournamentCategory, error)
}

type repositoryTournamentProvider struct {
	repo repositories.TournamentRepository
}

func NewTournamentProvider(repo repositories.TournamentRepository) TournamentProvider {
	return &repositoryTournamentProvider{repo: repo}
}

func (p *repositoryTournamentProvider) GetCategory(ctx context.Context, categoryID int) (*models.TournamentCategory, error) {
	category, err := p.repo.GetCategory(ctx, nil, categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentCategoryNotFound) {
			return nil, ErrUnknownCategory
		}
		return nil, err
	}
	return category, nil
}

// CachedTournamentProvider keeps categories in memory for read-side lookups.
// Write paths read the category inside their transaction instead, so a stale
// registration window never lets a submission through.
type CachedTournamentProvider struct {
	next   TournamentProvider
	cache  *gocache.Cache
	logger *slog.Logger
}

func NewCachedTournamentProvider(next TournamentProvider, ttl time.Duration, logger *slog.Logger) *CachedTournamentProvider {
	if ttl <= 0 {
		ttl = DefaultCategoryCacheTTL
	}
	return &CachedTournamentProvider{
		next:   next,
		cache:  gocache.New(ttl, defaultCategoryCacheCleanup),
		logger: logger,
	}
}

func (p *CachedTournamentProvider) GetCategory(ctx context.Context, categoryID int) (*models.TournamentCategory, error) {
	key := strconv.Itoa(categoryID)
	if value, found := p.cache.Get(key); found {
		if category, ok := value.(models.TournamentCategory); ok {
			return copyCategory(category), nil
		}
		p.logger.Error("wrong type assertion when getting category from cache", slog.String("key", key))
	}

	category, err := p.next.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(key, *copyCategory(*category))
	return category, nil
}

// Invalidate drops a cached category, e.g. after its tournament changed.
func (p *CachedTournamentProvider) Invalidate(categoryID int) {
	p.cache.Delete(strconv.Itoa(categoryID))
}

func copyCategory(c models.TournamentCategory) *models.TournamentCategory {
	if c.Tournament != nil {
		t := *c.Tournament
		c.Tournament = &t
	}
	return &c
}
