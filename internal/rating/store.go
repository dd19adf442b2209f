package rating

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrNotFound       = errors.New("rating not found")
	ErrRecipeNotFound = errors.New("recipe not found")
)

const foreignKeyViolation = "23503"

type Store interface {
	Upsert(ctx context.Context, recipeID, userID int64, score int, comment *string) (*Rating, bool, error)
	Delete(ctx context.Context, recipeID, userID int64) (bool, error)
	Recompute(ctx context.Context, recipeID int64) (Aggregate, error)
	ForRecipe(ctx context.Context, recipeID int64) ([]Rating, error)
	Stats(ctx context.Context, recipeID int64) (Stats, error)
	ByUser(ctx context.Context, recipeID, userID int64) (*Rating, error)
	Distribution(ctx context.Context, recipeID int64) ([]Bucket, error)
}

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert writes the caller's rating in place. The bool reports whether a new
// row was created.
func (s *PostgresStore) Upsert(ctx context.Context, recipeID, userID int64, score int, comment *string) (*Rating, bool, error) {
	var out struct {
		Rating
		Inserted bool `db:"inserted"`
	}
	err := s.db.GetContext(ctx, &out,
		`INSERT INTO ratings (recipe_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (recipe_id, user_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			created_at = NOW()
		RETURNING rating_id, recipe_id, user_id, rating, comment, created_at, (xmax = 0) AS inserted`,
		recipeID, userID, score, comment)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return nil, false, ErrRecipeNotFound
		}
		return nil, false, fmt.Errorf("failed to upsert rating: %w", err)
	}
	return &out.Rating, out.Inserted, nil
}

func (s *PostgresStore) Delete(ctx context.Context, recipeID, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ratings WHERE recipe_id = $1 AND user_id = $2`, recipeID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete rating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete rating: %w", err)
	}
	return n > 0, nil
}

// Recompute rebuilds the recipe's cached average (one decimal) and count
// from every stored rating.
func (s *PostgresStore) Recompute(ctx context.Context, recipeID int64) (Aggregate, error) {
	var agg Aggregate
	err := s.db.GetContext(ctx, &agg,
		`UPDATE recipes SET rating = agg.avg_rating, rating_count = agg.total
		FROM (
			SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0) AS avg_rating, COUNT(*) AS total
			FROM ratings WHERE recipe_id = $1
		) AS agg
		WHERE recipes.recipe_id = $1
		RETURNING recipes.rating, recipes.rating_count`,
		recipeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Aggregate{}, ErrRecipeNotFound
		}
		return Aggregate{}, fmt.Errorf("failed to recompute rating: %w", err)
	}
	return agg, nil
}

func (s *PostgresStore) ForRecipe(ctx context.Context, recipeID int64) ([]Rating, error) {
	out := []Rating{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT r.rating_id, r.recipe_id, r.user_id, r.rating, r.comment, r.created_at, u.username, u.email
		FROM ratings r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.recipe_id = $1
		ORDER BY r.created_at DESC`,
		recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Stats(ctx context.Context, recipeID int64) (Stats, error) {
	var st Stats
	err := s.db.GetContext(ctx, &st,
		`SELECT
			COALESCE(ROUND(AVG(rating)::numeric, 1), 0) AS average_rating,
			COUNT(*) AS total_ratings,
			COUNT(*) FILTER (WHERE rating = 5) AS five_star,
			COUNT(*) FILTER (WHERE rating = 4) AS four_star,
			COUNT(*) FILTER (WHERE rating = 3) AS three_star,
			COUNT(*) FILTER (WHERE rating = 2) AS two_star,
			COUNT(*) FILTER (WHERE rating = 1) AS one_star
		FROM ratings WHERE recipe_id = $1`,
		recipeID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to load rating stats: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) ByUser(ctx context.Context, recipeID, userID int64) (*Rating, error) {
	var r Rating
	err := s.db.GetContext(ctx, &r,
		`SELECT rating_id, recipe_id, user_id, rating, comment, created_at
		FROM ratings WHERE recipe_id = $1 AND user_id = $2`,
		recipeID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) Distribution(ctx context.Context, recipeID int64) ([]Bucket, error) {
	out := []Bucket{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT rating, COUNT(*) AS count,
			ROUND((COUNT(*) * 100.0 / SUM(COUNT(*)) OVER ())::numeric, 1) AS percentage
		FROM ratings
		WHERE recipe_id = $1
		GROUP BY rating
		ORDER BY rating DESC`,
		recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating distribution: %w", err)
	}
	return out, nil
}
