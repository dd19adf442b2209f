package grocery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("grocery entry not found")
	ErrDuplicate = errors.New("recipe already in grocery list")
)

const uniqueViolation = "23505"

type Store interface {
	List(ctx context.Context, userID int64) ([]*Entry, error)
	Get(ctx context.Context, userID, entryID int64) (*Entry, error)
	Exists(ctx context.Context, userID, recipeID int64) (bool, error)
	Create(ctx context.Context, e *Entry) error
	ToggleItem(ctx context.Context, userID, entryID int64, index int) (*Entry, error)
	Delete(ctx context.Context, userID, entryID int64) (bool, error)
	Clear(ctx context.Context, userID int64) (int64, error)
}

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `g.grocery_id, g.user_id, g.recipe_id, r.title AS recipe_name, g.ingredients, g.created_at`

func (s *PostgresStore) List(ctx context.Context, userID int64) ([]*Entry, error) {
	out := []*Entry{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+entryColumns+`
		FROM grocery_list g
		LEFT JOIN recipes r ON r.recipe_id = g.recipe_id
		WHERE g.user_id = $1
		ORDER BY g.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grocery entries: %w", err)
	}
	return out, nil
}

// Get only returns entries owned by userID.
func (s *PostgresStore) Get(ctx context.Context, userID, entryID int64) (*Entry, error) {
	var e Entry
	err := s.db.GetContext(ctx, &e,
		`SELECT `+entryColumns+`
		FROM grocery_list g
		LEFT JOIN recipes r ON r.recipe_id = g.recipe_id
		WHERE g.grocery_id = $1 AND g.user_id = $2`, entryID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get grocery entry: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) Exists(ctx context.Context, userID, recipeID int64) (bool, error) {
	var ok bool
	err := s.db.GetContext(ctx, &ok,
		`SELECT EXISTS(SELECT 1 FROM grocery_list WHERE user_id = $1 AND recipe_id = $2)`, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("failed to check grocery entry: %w", err)
	}
	return ok, nil
}

func (s *PostgresStore) Create(ctx context.Context, e *Entry) error {
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO grocery_list (user_id, recipe_id, ingredients)
		VALUES ($1, $2, $3)
		RETURNING grocery_id, created_at`,
		e.UserID, e.RecipeID, e.Ingredients,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create grocery entry: %w", err)
	}
	return nil
}

// ToggleItem flips one item's checked flag inside the JSONB array in a single
// statement, so concurrent toggles of different items do not overwrite each
// other. The caller validates the index first.
func (s *PostgresStore) ToggleItem(ctx context.Context, userID, entryID int64, index int) (*Entry, error) {
	var e Entry
	err := s.db.GetContext(ctx, &e,
		`WITH updated AS (
			UPDATE grocery_list
			SET ingredients = jsonb_set(
				ingredients,
				ARRAY[$3::text, 'checked'],
				to_jsonb(NOT COALESCE((ingredients -> $3::int ->> 'checked')::boolean, FALSE))
			)
			WHERE grocery_id = $1 AND user_id = $2 AND $3::int < jsonb_array_length(ingredients)
			RETURNING grocery_id, user_id, recipe_id, ingredients, created_at
		)
		SELECT u.grocery_id, u.user_id, u.recipe_id, r.title AS recipe_name, u.ingredients, u.created_at
		FROM updated u
		LEFT JOIN recipes r ON r.recipe_id = u.recipe_id`,
		entryID, userID, index)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to toggle grocery item: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID, entryID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grocery_list WHERE grocery_id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete grocery entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete grocery entry: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) Clear(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grocery_list WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear grocery list: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to clear grocery list: %w", err)
	}
	return n, nil
}
