// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/repo-profiles/internal/domain"
	"github.com/naka-gawa/repo-profiles/internal/gateway"
)

// Aggregator is the use case for building a profile.
// It orchestrates fetching from every provider and folding the results.
type Aggregator struct {
	providers []gateway.Provider
	timeout   time.Duration
	logger    *zap.Logger
}

// NewAggregator creates a new Aggregator instance.
// timeout bounds a whole profile lookup; zero means no bound beyond the caller's context.
func NewAggregator(providers []gateway.Provider, timeout time.Duration, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		providers: providers,
		timeout:   timeout,
		logger:    logger,
	}
}

// Aggregate fetches the profile's repositories from all providers concurrently and
// aggregates them. The first failing provider cancels the others and its error is
// returned as is; partial results are discarded.
func (a *Aggregator) Aggregate(ctx context.Context, profile string) (*domain.Profile, error) {
	l := a.logger.With(zap.String("profile", profile))
	l.Debug("starting profile aggregation", zap.Int("providers", len(a.providers)))

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	results := make([][]domain.Repository, len(a.providers))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, p := range a.providers {
		eg.Go(func() error {
			repos, err := p.FetchRepositories(egCtx, profile)
			if err != nil {
				l.Debug("provider failed", zap.String("provider", p.Name()), zap.Error(err))
				return err
			}
			l.Debug("provider done", zap.String("provider", p.Name()), zap.Int("repositories", len(repos)))
			results[i] = repos
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []domain.Repository
	for _, repos := range results {
		all = append(all, repos...)
	}

	profileData := domain.AggregateProfile(all)
	l.Debug("profile aggregation complete", zap.Int("repositories", len(all)))
	return profileData, nil
}
