package rating

import "time"

const (
	MinScore = 1
	MaxScore = 5
)

type Rating struct {
	ID        int64     `json:"rating_id" db:"rating_id"`
	RecipeID  int64     `json:"recipe_id" db:"recipe_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Score     int       `json:"rating" db:"rating"`
	Comment   *string   `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Username  *string   `json:"username,omitempty" db:"username"`
	Email     *string   `json:"email,omitempty" db:"email"`
}

// Stats summarises every rating of one recipe.
type Stats struct {
	Average   float64 `json:"average_rating" db:"average_rating"`
	Total     int     `json:"total_ratings" db:"total_ratings"`
	FiveStar  int     `json:"five_star" db:"five_star"`
	FourStar  int     `json:"four_star" db:"four_star"`
	ThreeStar int     `json:"three_star" db:"three_star"`
	TwoStar   int     `json:"two_star" db:"two_star"`
	OneStar   int     `json:"one_star" db:"one_star"`
}

// Summary is what a recipe page shows: the ratings newest first, their
// statistics and, for a signed-in caller, their own rating.
type Summary struct {
	Ratings    []Rating `json:"ratings"`
	Statistics Stats    `json:"statistics"`
	UserRating *Rating  `json:"user_rating"`
}

type Bucket struct {
	Score      int     `json:"rating" db:"rating"`
	Count      int     `json:"count" db:"count"`
	Percentage float64 `json:"percentage" db:"percentage"`
}

// Aggregate is the cached average and count written back to the recipe.
type Aggregate struct {
	Average float64 `json:"rating" db:"rating"`
	Count   int     `json:"rating_count" db:"rating_count"`
}

type UpsertResult struct {
	Rating    *Rating   `json:"rating"`
	Created   bool      `json:"created"`
	Aggregate Aggregate `json:"recipe"`
}
