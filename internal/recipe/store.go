package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrNotFound = errors.New("recipe not found")

const foreignKeyViolation = "23503"

// Store defines the interface for recipe data operations.
type Store interface {
	List(ctx context.Context, f ListFilter, viewerID int64) ([]*Recipe, error)
	Search(ctx context.Context, f SearchFilter, viewerID int64) ([]*Recipe, error)
	Recommended(ctx context.Context, f PreferenceFilter, viewerID int64) ([]*Recipe, error)
	TopRated(ctx context.Context, viewerID int64) ([]*Recipe, error)
	MostRated(ctx context.Context, limit int, viewerID int64) ([]*Recipe, error)
	GetByID(ctx context.Context, id, viewerID int64) (*Recipe, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Insert(ctx context.Context, r *Recipe) error

	IsFavorite(ctx context.Context, userID, recipeID int64) (bool, error)
	AddFavorite(ctx context.Context, userID, recipeID int64) error
	RemoveFavorite(ctx context.Context, userID, recipeID int64) (bool, error)
	Favorites(ctx context.Context, userID int64) ([]*Recipe, error)
}

// PostgresStore implements Store for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context, f ListFilter, viewerID int64) ([]*Recipe, error) {
	q, args := BuildList(f, viewerID)
	return s.selectRecipes(ctx, "list recipes", q, args...)
}

func (s *PostgresStore) Search(ctx context.Context, f SearchFilter, viewerID int64) ([]*Recipe, error) {
	q, args := BuildSearch(f, viewerID)
	return s.selectRecipes(ctx, "search recipes", q, args...)
}

func (s *PostgresStore) Recommended(ctx context.Context, f PreferenceFilter, viewerID int64) ([]*Recipe, error) {
	q, args := BuildRecommended(f, viewerID)
	return s.selectRecipes(ctx, "recommend recipes", q, args...)
}

func (s *PostgresStore) TopRated(ctx context.Context, viewerID int64) ([]*Recipe, error) {
	q, args := BuildTopRated(viewerID)
	return s.selectRecipes(ctx, "top recipes", q, args...)
}

func (s *PostgresStore) MostRated(ctx context.Context, limit int, viewerID int64) ([]*Recipe, error) {
	q, args := BuildMostRated(limit, viewerID)
	return s.selectRecipes(ctx, "most rated recipes", q, args...)
}

func (s *PostgresStore) GetByID(ctx context.Context, id, viewerID int64) (*Recipe, error) {
	q, args := BuildByID(id, viewerID)
	var r row
	if err := s.db.GetContext(ctx, &r, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return r.toRecipe(), nil
}

func (s *PostgresStore) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := s.db.GetContext(ctx, &ok, `SELECT EXISTS(SELECT 1 FROM recipes WHERE recipe_id = $1)`, id); err != nil {
		return false, fmt.Errorf("failed to check recipe: %w", err)
	}
	return ok, nil
}

// Insert adds a catalog entry and fills in its id and creation time.
func (s *PostgresStore) Insert(ctx context.Context, r *Recipe) error {
	names, quantities := splitIngredients(r.Ingredients)
	steps := r.Steps
	if steps == nil {
		steps = pq.StringArray{}
	}
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO recipes (title, description, ingredients, quantities, steps, cuisine_type, dietary_preference,
			difficulty_level, meal_type, allergens, calories, protein, carbs, fats, cooking_time, servings, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING recipe_id, created_at`,
		r.Title, r.Description, pq.Array(names), pq.Array(quantities), steps,
		nullable(r.CuisineType), nullable(r.DietaryPreference), nullable(r.DifficultyLevel), nullable(r.MealType),
		r.Allergens, r.Calories, r.Protein, r.Carbs, r.Fats, r.CookingTime, r.Servings, nullable(r.ImageURL),
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsFavorite(ctx context.Context, userID, recipeID int64) (bool, error) {
	var ok bool
	err := s.db.GetContext(ctx, &ok,
		`SELECT EXISTS(SELECT 1 FROM user_favorites WHERE user_id = $1 AND recipe_id = $2)`, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return ok, nil
}

// AddFavorite is a no-op when the pair already exists.
func (s *PostgresStore) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_favorites (user_id, recipe_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, recipeID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, userID, recipeID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	return n > 0, nil
}

// Favorites lists the user's bookmarks, most recently added first.
func (s *PostgresStore) Favorites(ctx context.Context, userID int64) ([]*Recipe, error) {
	return s.selectRecipes(ctx, "list favorites", selectColumns+`,
	TRUE AS is_favorite
FROM recipes r
JOIN user_favorites uf ON uf.recipe_id = r.recipe_id
WHERE uf.user_id = $1
ORDER BY uf.created_at DESC`, userID)
}

func (s *PostgresStore) selectRecipes(ctx context.Context, op, q string, args ...interface{}) ([]*Recipe, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	out := make([]*Recipe, len(rows))
	for i := range rows {
		out[i] = rows[i].toRecipe()
	}
	return out, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
