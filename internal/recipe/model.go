package recipe

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Recipe is a catalog entry. Rating and RatingCount are a cached aggregate
// owned by the rating service.
type Recipe struct {
	ID                int64          `json:"recipe_id" db:"recipe_id"`
	Title             string         `json:"title" db:"title"`
	Description       string         `json:"description" db:"description"`
	Ingredients       []Ingredient   `json:"ingredients" db:"-"`
	Steps             pq.StringArray `json:"steps" db:"steps"`
	CuisineType       string         `json:"cuisine_type" db:"cuisine_type"`
	DietaryPreference string         `json:"dietary_preference" db:"dietary_preference"`
	DifficultyLevel   string         `json:"difficulty_level" db:"difficulty_level"`
	MealType          string         `json:"meal_type" db:"meal_type"`
	Allergens         *string        `json:"allergens" db:"allergens"`
	Calories          *float64       `json:"calories,omitempty" db:"calories"`
	Protein           *float64       `json:"protein,omitempty" db:"protein"`
	Carbs             *float64       `json:"carbs,omitempty" db:"carbs"`
	Fats              *float64       `json:"fats,omitempty" db:"fats"`
	CookingTime       *int           `json:"cooking_time,omitempty" db:"cooking_time"`
	Servings          *int           `json:"servings,omitempty" db:"servings"`
	ImageURL          string         `json:"image_url" db:"image_url"`
	Rating            float64        `json:"rating" db:"rating"`
	RatingCount       int            `json:"rating_count" db:"rating_count"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	IsFavorite        bool           `json:"is_favorite" db:"is_favorite"`
}

// IngredientNames returns the names in list order.
func (r *Recipe) IngredientNames() []string {
	names := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		names[i] = ing.Name
	}
	return names
}

// IngredientText is the lower-cased, newline-joined name list that substring
// matching runs against. It mirrors array_to_string(ingredients, E'\n').
func (r *Recipe) IngredientText() string {
	return strings.ToLower(strings.Join(r.IngredientNames(), "\n"))
}

// row is the scan target: ingredient names and quantities live in two
// index-aligned array columns.
type row struct {
	Recipe
	Names      pq.StringArray `db:"ingredients"`
	Quantities pq.StringArray `db:"quantities"`
}

func (r *row) toRecipe() *Recipe {
	out := r.Recipe
	out.Ingredients = zipIngredients(r.Names, r.Quantities)
	if out.Steps == nil {
		out.Steps = pq.StringArray{}
	}
	return &out
}

func zipIngredients(names, quantities []string) []Ingredient {
	out := make([]Ingredient, len(names))
	for i, n := range names {
		out[i].Name = n
		if i < len(quantities) {
			out[i].Quantity = quantities[i]
		}
	}
	return out
}

func splitIngredients(ings []Ingredient) (names, quantities []string) {
	names = make([]string, len(ings))
	quantities = make([]string, len(ings))
	for i, ing := range ings {
		names[i] = ing.Name
		quantities[i] = ing.Quantity
	}
	return names, quantities
}
