package recipe

import (
	"context"
	"errors"

	"cookmate/internal/platform/apierr"
	"cookmate/internal/platform/logger"
)

// PreferenceSource yields the stored preferences of a user as a recipe
// filter, or nil when the user has none.
type PreferenceSource interface {
	RecipePreferences(ctx context.Context, userID int64) (*PreferenceFilter, error)
}

type Service struct {
	store Store
	prefs PreferenceSource
	log   *logger.Logger
}

func NewService(store Store, prefs PreferenceSource, log *logger.Logger) *Service {
	return &Service{store: store, prefs: prefs, log: log.With("service", "RecipeService")}
}

func (s *Service) List(ctx context.Context, f ListFilter, viewerID int64) ([]*Recipe, error) {
	out, err := s.store.List(ctx, f, viewerID)
	if err != nil {
		return nil, apierr.Internal(err, "list recipes")
	}
	return out, nil
}

// Search runs the ingredient search. Signed-in callers additionally have
// recipes mentioning their stored allergies removed; if those cannot be
// loaded the search proceeds without them.
func (s *Service) Search(ctx context.Context, f SearchFilter, viewerID int64) ([]*Recipe, error) {
	if viewerID > 0 {
		prefs, err := s.prefs.RecipePreferences(ctx, viewerID)
		switch {
		case err != nil:
			s.log.Warn("could not load allergies for search", "user_id", viewerID, "error", err)
		case prefs != nil:
			f.Allergies = prefs.Allergies
		}
	}
	out, err := s.store.Search(ctx, f, viewerID)
	if err != nil {
		return nil, apierr.Internal(err, "search recipes")
	}
	return out, nil
}

// Recommended applies the caller's preferences strictly. Anonymous callers
// and callers without preferences get the top rated recipes instead.
func (s *Service) Recommended(ctx context.Context, viewerID int64) ([]*Recipe, error) {
	var prefs *PreferenceFilter
	if viewerID > 0 {
		p, err := s.prefs.RecipePreferences(ctx, viewerID)
		if err != nil {
			return nil, apierr.Internal(err, "load preferences")
		}
		prefs = p
	}

	var (
		out []*Recipe
		err error
	)
	if prefs == nil {
		out, err = s.store.TopRated(ctx, viewerID)
	} else {
		out, err = s.store.Recommended(ctx, *prefs, viewerID)
	}
	if err != nil {
		return nil, apierr.Internal(err, "recommend recipes")
	}
	return out, nil
}

// TopRated lists recipes that have at least one rating, best first.
func (s *Service) TopRated(ctx context.Context, limit int, viewerID int64) ([]*Recipe, error) {
	out, err := s.store.MostRated(ctx, limit, viewerID)
	if err != nil {
		return nil, apierr.Internal(err, "top rated recipes")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id, viewerID int64) (*Recipe, error) {
	r, err := s.store.GetByID(ctx, id, viewerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound()
		}
		return nil, apierr.Internal(err, "get recipe")
	}
	return r, nil
}

// ToggleFavorite flips the bookmark and returns the new state.
func (s *Service) ToggleFavorite(ctx context.Context, userID, recipeID int64) (bool, error) {
	fav, err := s.store.IsFavorite(ctx, userID, recipeID)
	if err != nil {
		return false, apierr.Internal(err, "toggle favorite")
	}
	if fav {
		if _, err := s.store.RemoveFavorite(ctx, userID, recipeID); err != nil {
			return false, apierr.Internal(err, "toggle favorite")
		}
		return false, nil
	}

	ok, err := s.store.Exists(ctx, recipeID)
	if err != nil {
		return false, apierr.Internal(err, "toggle favorite")
	}
	if !ok {
		return false, notFound()
	}
	if err := s.store.AddFavorite(ctx, userID, recipeID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, notFound()
		}
		return false, apierr.Internal(err, "toggle favorite")
	}
	return true, nil
}

// RemoveFavorite succeeds whether or not the bookmark existed.
func (s *Service) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	if _, err := s.store.RemoveFavorite(ctx, userID, recipeID); err != nil {
		return apierr.Internal(err, "remove favorite")
	}
	return nil
}

func (s *Service) Favorites(ctx context.Context, userID int64) ([]*Recipe, error) {
	out, err := s.store.Favorites(ctx, userID)
	if err != nil {
		return nil, apierr.Internal(err, "list favorites")
	}
	return out, nil
}

func notFound() error { return apierr.NotFound("recipe_not_found", "Recipe not found") }
