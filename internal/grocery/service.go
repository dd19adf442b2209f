package grocery

import (
	"context"
	"errors"

	"cookmate/internal/platform/apierr"
	"cookmate/internal/platform/logger"
	"cookmate/internal/recipe"
)

// Catalog resolves recipes; recipe.PostgresStore satisfies it.
type Catalog interface {
	GetByID(ctx context.Context, id, viewerID int64) (*recipe.Recipe, error)
}

type Service struct {
	store   Store
	catalog Catalog
	log     *logger.Logger
}

func NewService(store Store, catalog Catalog, log *logger.Logger) *Service {
	return &Service{store: store, catalog: catalog, log: log.With("service", "GroceryService")}
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Entry, error) {
	out, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, apierr.Internal(err, "list grocery")
	}
	for _, e := range out {
		e.refresh()
	}
	return out, nil
}

// AddRecipe copies the recipe's ingredients into a new unchecked entry. A
// second add for the same recipe is a conflict and leaves the first intact.
func (s *Service) AddRecipe(ctx context.Context, userID, recipeID int64) (*Entry, error) {
	r, err := s.catalog.GetByID(ctx, recipeID, userID)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			return nil, apierr.NotFound("recipe_not_found", "Recipe not found")
		}
		return nil, apierr.Internal(err, "add grocery")
	}

	exists, err := s.store.Exists(ctx, userID, recipeID)
	if err != nil {
		return nil, apierr.Internal(err, "add grocery")
	}
	if exists {
		return nil, duplicate()
	}

	items := make(Items, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		items[i] = Item{Name: ing.Name, Quantity: ing.Quantity}
	}
	title := r.Title
	e := &Entry{UserID: userID, RecipeID: recipeID, RecipeName: &title, Ingredients: items}
	if err := s.store.Create(ctx, e); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, duplicate()
		}
		return nil, apierr.Internal(err, "add grocery")
	}
	e.refresh()
	s.log.Debug("grocery entry added", "user_id", userID, "recipe_id", recipeID, "items", len(items))
	return e, nil
}

// ToggleItem flips the checked flag of one item. Applying it twice restores
// the previous state.
func (s *Service) ToggleItem(ctx context.Context, userID, entryID int64, index int) (*Entry, error) {
	e, err := s.store.Get(ctx, userID, entryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, entryNotFound()
		}
		return nil, apierr.Internal(err, "toggle grocery item")
	}
	if index < 0 || index >= len(e.Ingredients) {
		return nil, apierr.Validation("invalid_ingredient_index", "Invalid ingredient index")
	}

	updated, err := s.store.ToggleItem(ctx, userID, entryID, index)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, entryNotFound()
		}
		return nil, apierr.Internal(err, "toggle grocery item")
	}
	updated.refresh()
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, entryID int64) error {
	removed, err := s.store.Delete(ctx, userID, entryID)
	if err != nil {
		return apierr.Internal(err, "delete grocery entry")
	}
	if !removed {
		return entryNotFound()
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.Clear(ctx, userID)
	if err != nil {
		return 0, apierr.Internal(err, "clear grocery list")
	}
	return n, nil
}

func entryNotFound() error {
	return apierr.NotFound("grocery_entry_not_found", "Grocery item not found")
}

func duplicate() error {
	return apierr.Conflict("already_in_grocery_list", "Recipe already in grocery list")
}
