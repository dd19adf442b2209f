package recipe

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type SortOrder string

const (
	SortRecency    SortOrder = "recency"
	SortRating     SortOrder = "rating"
	SortPopularity SortOrder = "popularity"
)

const (
	listLimit     = 100
	fallbackLimit = 20

	DefaultTopLimit = 10
)

// ListFilter narrows the catalog browse view. Empty fields are ignored.
type ListFilter struct {
	MealType string
	Cuisine  string
	Search   string
	Sort     SortOrder
}

// SearchFilter is the ingredient search. Every ingredient must appear in the
// recipe's ingredient text and every non-empty dimension must match.
type SearchFilter struct {
	Ingredients []string
	Difficulty  string
	MealTypes   []string
	Dietary     []string
	Cuisines    []string
	// Allergies excludes recipes whose allergen text mentions any entry.
	Allergies []string
}

// PreferenceFilter is derived from stored user preferences.
type PreferenceFilter struct {
	DietType  string
	MealGoal  string
	Cuisines  []string
	Allergies []string
}

const selectColumns = `SELECT r.recipe_id, r.title, r.description, r.ingredients, r.quantities, r.steps,
	COALESCE(r.cuisine_type, '') AS cuisine_type,
	COALESCE(r.dietary_preference, '') AS dietary_preference,
	COALESCE(r.difficulty_level, '') AS difficulty_level,
	COALESCE(r.meal_type, '') AS meal_type,
	r.allergens, r.calories, r.protein, r.carbs, r.fats, r.cooking_time, r.servings,
	COALESCE(r.image_url, '') AS image_url, r.rating, r.rating_count, r.created_at`

// query accumulates WHERE clauses and positional arguments. $1 is always the
// viewer id (NULL for anonymous callers) so is_favorite can be joined.
type query struct {
	where []string
	args  []interface{}
}

func newQuery(viewerID int64) *query {
	var viewer interface{}
	if viewerID > 0 {
		viewer = viewerID
	}
	return &query{args: []interface{}{viewer}}
}

func (q *query) arg(v interface{}) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *query) and(clause string) {
	q.where = append(q.where, clause)
}

func (q *query) excludeAllergens(allergies []string) {
	patterns := make([]string, 0, len(allergies))
	for _, a := range allergies {
		if a = strings.TrimSpace(a); a != "" && !isPlaceholder(a) {
			patterns = append(patterns, containsPattern(a))
		}
	}
	if len(patterns) == 0 {
		return
	}
	q.and(fmt.Sprintf("(r.allergens IS NULL OR NOT (r.allergens ILIKE ANY(%s)))", q.arg(pq.Array(patterns))))
}

func (q *query) build(orderBy string, limit int) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(selectColumns)
	b.WriteString(`,
	(uf.recipe_id IS NOT NULL) AS is_favorite
FROM recipes r
LEFT JOIN user_favorites uf ON uf.recipe_id = r.recipe_id AND uf.user_id = $1`)
	if len(q.where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(q.where, "\n  AND "))
	}
	b.WriteString("\nORDER BY ")
	b.WriteString(orderBy)
	if limit > 0 {
		fmt.Fprintf(&b, "\nLIMIT %d", limit)
	}
	return b.String(), q.args
}

// BuildList renders the browse query: at most 100 rows.
func BuildList(f ListFilter, viewerID int64) (string, []interface{}) {
	q := newQuery(viewerID)
	if v := strings.TrimSpace(f.MealType); v != "" {
		q.and("r.meal_type = " + q.arg(v))
	}
	if v := strings.TrimSpace(f.Cuisine); v != "" {
		q.and("r.cuisine_type = " + q.arg(v))
	}
	if v := strings.TrimSpace(f.Search); v != "" {
		p := q.arg(containsPattern(v))
		q.and(fmt.Sprintf("(r.title ILIKE %[1]s OR r.description ILIKE %[1]s OR array_to_string(r.ingredients, E'\\n') ILIKE %[1]s)", p))
	}
	return q.build(sortClause(f.Sort), listLimit)
}

// BuildSearch renders the mandatory-AND ingredient search.
func BuildSearch(f SearchFilter, viewerID int64) (string, []interface{}) {
	q := newQuery(viewerID)
	for _, ing := range f.Ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			q.and(fmt.Sprintf("array_to_string(r.ingredients, E'\\n') ILIKE %s", q.arg(containsPattern(ing))))
		}
	}
	if vs := nonBlank(f.Dietary); len(vs) > 0 {
		q.and("r.dietary_preference = ANY(" + q.arg(pq.Array(vs)) + ")")
	}
	if v := strings.TrimSpace(f.Difficulty); v != "" {
		q.and("r.difficulty_level = " + q.arg(v))
	}
	if vs := nonBlank(f.MealTypes); len(vs) > 0 {
		q.and("r.meal_type = ANY(" + q.arg(pq.Array(vs)) + ")")
	}
	if vs := nonBlank(f.Cuisines); len(vs) > 0 {
		q.and("r.cuisine_type = ANY(" + q.arg(pq.Array(vs)) + ")")
	}
	q.excludeAllergens(f.Allergies)
	return q.build("r.rating DESC, r.created_at DESC", 0)
}

// BuildRecommended renders the strict preference match. There is no relaxed
// fallback: zero rows is a valid answer.
func BuildRecommended(f PreferenceFilter, viewerID int64) (string, []interface{}) {
	q := newQuery(viewerID)
	if tags := DietTags(f.DietType); len(tags) > 0 {
		q.and("r.dietary_preference = ANY(" + q.arg(pq.Array(tags)) + ")")
	}
	if v := strings.TrimSpace(f.MealGoal); v != "" && !isPlaceholder(v) {
		q.and("r.meal_type = " + q.arg(v))
	}
	var cuisines []string
	for _, c := range nonBlank(f.Cuisines) {
		if !isPlaceholder(c) {
			cuisines = append(cuisines, c)
		}
	}
	if len(cuisines) > 0 {
		q.and("r.cuisine_type = ANY(" + q.arg(pq.Array(cuisines)) + ")")
	}
	q.excludeAllergens(f.Allergies)
	return q.build("r.rating DESC, r.created_at DESC", 0)
}

// BuildTopRated renders the anonymous fallback for recommendations.
func BuildTopRated(viewerID int64) (string, []interface{}) {
	return newQuery(viewerID).build("r.rating DESC", fallbackLimit)
}

// BuildMostRated renders the leaderboard: only rated recipes, best first,
// more ratings breaking ties.
func BuildMostRated(limit int, viewerID int64) (string, []interface{}) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	q := newQuery(viewerID)
	q.and("r.rating_count > 0")
	return q.build("r.rating DESC, r.rating_count DESC", limit)
}

// BuildByID renders a single-recipe lookup.
func BuildByID(id, viewerID int64) (string, []interface{}) {
	q := newQuery(viewerID)
	q.and("r.recipe_id = " + q.arg(id))
	return q.build("r.recipe_id", 0)
}

// DietTags lists the dietary tags a diet preference admits. Non-Veg also
// admits Veg; the reverse does not hold.
func DietTags(diet string) []string {
	diet = strings.TrimSpace(diet)
	switch {
	case diet == "" || isPlaceholder(diet):
		return nil
	case diet == "Non-Veg":
		return []string{"Non-Veg", "Veg"}
	default:
		return []string{diet}
	}
}

func sortClause(s SortOrder) string {
	switch s {
	case SortRating:
		return "r.rating DESC"
	case SortPopularity:
		return "r.rating DESC, r.created_at DESC"
	default:
		return "r.created_at DESC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func nonBlank(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func isPlaceholder(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none", "(none)":
		return true
	}
	return false
}
