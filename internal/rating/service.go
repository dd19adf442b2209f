package rating

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"cookmate/internal/platform/apierr"
	"cookmate/internal/platform/logger"
)

type Service struct {
	store Store
	log   *logger.Logger
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log.With("service", "RatingService")}
}

// Upsert records the caller's score and then recomputes the recipe's cached
// aggregate. The two steps are not atomic: if the recompute fails the
// rating is kept and the cache stays stale until the next write.
func (s *Service) Upsert(ctx context.Context, recipeID, userID int64, score int, comment string) (*UpsertResult, error) {
	if score < MinScore || score > MaxScore {
		return nil, apierr.Validation("rating_out_of_range", "Rating must be between 1 and 5")
	}
	var c *string
	if comment = strings.TrimSpace(comment); comment != "" {
		c = &comment
	}

	r, created, err := s.store.Upsert(ctx, recipeID, userID, score, c)
	if err != nil {
		if errors.Is(err, ErrRecipeNotFound) {
			return nil, recipeNotFound()
		}
		return nil, apierr.Internal(err, "upsert rating")
	}

	agg, err := s.recompute(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return &UpsertResult{Rating: r, Created: created, Aggregate: agg}, nil
}

func (s *Service) Delete(ctx context.Context, recipeID, userID int64) (Aggregate, error) {
	removed, err := s.store.Delete(ctx, recipeID, userID)
	if err != nil {
		return Aggregate{}, apierr.Internal(err, "delete rating")
	}
	if !removed {
		return Aggregate{}, apierr.NotFound("rating_not_found", "Rating not found")
	}
	return s.recompute(ctx, recipeID)
}

// ForRecipe loads the ratings, their statistics and the caller's own rating
// concurrently. viewerID 0 means anonymous.
func (s *Service) ForRecipe(ctx context.Context, recipeID, viewerID int64) (*Summary, error) {
	var sum Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := s.store.ForRecipe(gctx, recipeID)
		sum.Ratings = rs
		return err
	})
	g.Go(func() error {
		st, err := s.store.Stats(gctx, recipeID)
		sum.Statistics = st
		return err
	})
	if viewerID > 0 {
		g.Go(func() error {
			mine, err := s.store.ByUser(gctx, recipeID, viewerID)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			sum.UserRating = mine
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apierr.Internal(err, "load ratings")
	}
	return &sum, nil
}

// Mine returns the caller's rating, or nil when they have not rated.
func (s *Service) Mine(ctx context.Context, recipeID, userID int64) (*Rating, error) {
	r, err := s.store.ByUser(ctx, recipeID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, apierr.Internal(err, "get rating")
	}
	return r, nil
}

func (s *Service) Distribution(ctx context.Context, recipeID int64) ([]Bucket, error) {
	out, err := s.store.Distribution(ctx, recipeID)
	if err != nil {
		return nil, apierr.Internal(err, "rating distribution")
	}
	return out, nil
}

func (s *Service) recompute(ctx context.Context, recipeID int64) (Aggregate, error) {
	agg, err := s.store.Recompute(ctx, recipeID)
	if err != nil {
		s.log.Error("rating cache left stale", "recipe_id", recipeID, "error", err)
		return Aggregate{}, apierr.Internal(err, "recompute rating")
	}
	return agg, nil
}

func recipeNotFound() error { return apierr.NotFound("recipe_not_found", "Recipe not found") }
