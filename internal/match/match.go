// Package match ranks recipes against the ingredients a cook has on hand.
// It is a pure heuristic: it never touches storage and the catalog query
// stays an independent filter.
package match

import (
	"math"
	"sort"
	"strings"

	"cookmate/internal/recipe"
)

const (
	WeightIngredients = 50
	WeightDietary     = 20
	WeightDifficulty  = 10
	WeightMealType    = 10
	WeightCuisine     = 10
)

// Criteria is what the caller searched with. An empty dimension counts as
// matched.
type Criteria struct {
	Ingredients []string
	Dietary     []string
	Difficulty  string
	MealTypes   []string
	Cuisines    []string
}

// Ranked is a recipe annotated with its score and the ingredients the caller
// still needs.
type Ranked struct {
	Recipe             *recipe.Recipe `json:"recipe"`
	MatchPercentage    int            `json:"match_percentage"`
	MissingIngredients []string       `json:"missing_ingredients"`
}

// Score returns the 0-100 weighted match of r against c. With no caller
// ingredients the ingredient share is zero.
func Score(r *recipe.Recipe, c Criteria) int {
	var score float64

	if terms := lowerTerms(c.Ingredients); len(terms) > 0 {
		text := r.IngredientText()
		found := 0
		for _, t := range terms {
			if strings.Contains(text, t) {
				found++
			}
		}
		score += WeightIngredients * float64(found) / float64(len(terms))
	}

	if matchesAny(r.DietaryPreference, c.Dietary) {
		score += WeightDietary
	}
	if c.Difficulty == "" || strings.EqualFold(r.DifficultyLevel, c.Difficulty) {
		score += WeightDifficulty
	}
	if matchesAny(r.MealType, c.MealTypes) {
		score += WeightMealType
	}
	if matchesAny(r.CuisineType, c.Cuisines) {
		score += WeightCuisine
	}
	return int(math.Round(score))
}

// MissingIngredients lists recipe ingredients not covered by any caller term.
// Coverage is a case-insensitive substring match in either direction.
func MissingIngredients(r *recipe.Recipe, have []string) []string {
	terms := lowerTerms(have)
	missing := []string{}
	for _, name := range r.IngredientNames() {
		n := strings.ToLower(strings.TrimSpace(name))
		covered := false
		for _, t := range terms {
			if strings.Contains(n, t) || strings.Contains(t, n) {
				covered = true
				break
			}
		}
		if !covered {
			missing = append(missing, name)
		}
	}
	return missing
}

// Rank scores every recipe and orders by score, highest first. Ties keep
// their input order.
func Rank(recipes []*recipe.Recipe, c Criteria) []Ranked {
	out := make([]Ranked, len(recipes))
	for i, r := range recipes {
		out[i] = Ranked{
			Recipe:             r,
			MatchPercentage:    Score(r, c),
			MissingIngredients: MissingIngredients(r, c.Ingredients),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchPercentage > out[j].MatchPercentage
	})
	return out
}

func matchesAny(value string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		if strings.EqualFold(strings.TrimSpace(w), value) {
			return true
		}
	}
	return false
}

func lowerTerms(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
