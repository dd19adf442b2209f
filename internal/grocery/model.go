package grocery

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Item struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Checked  bool   `json:"checked"`
}

// Items is stored as a JSONB array.
type Items []Item

func (it Items) Value() (driver.Value, error) {
	if it == nil {
		it = Items{}
	}
	b, err := json.Marshal([]Item(it))
	if err != nil {
		return nil, fmt.Errorf("encode grocery items: %w", err)
	}
	return b, nil
}

func (it *Items) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*it = Items{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("grocery items: unsupported type %T", src)
	}
	var out []Item
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("decode grocery items: %w", err)
	}
	if out == nil {
		out = []Item{}
	}
	*it = out
	return nil
}

// Entry is one recipe's shopping list for one user.
type Entry struct {
	ID          int64     `json:"grocery_id" db:"grocery_id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	RecipeID    int64     `json:"recipe_id" db:"recipe_id"`
	RecipeName  *string   `json:"recipe_name" db:"recipe_name"`
	Ingredients Items     `json:"ingredients" db:"ingredients"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	// Complete is true once every item is checked; clients offer to delete
	// the entry at that point.
	Complete bool `json:"complete" db:"-"`
}

func (e *Entry) refresh() {
	e.Complete = len(e.Ingredients) > 0
	for _, it := range e.Ingredients {
		if !it.Checked {
			e.Complete = false
			return
		}
	}
}
