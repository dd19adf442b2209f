package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cookmate/internal/recipe"
)

// rowError is a CSV line that could not be turned into a recipe.
type rowError struct {
	Line int
	Err  error
}

func (e rowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

var requiredColumns = []string{"title", "ingredients", "quantities"}

// readRows parses legacy recipe rows. Header names follow the legacy column
// names; "instructions" is accepted for "steps". Bad rows are reported and
// skipped.
func readRows(r io.Reader) ([]*recipe.Recipe, []rowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if name == "instructions" {
			name = "steps"
		}
		cols[name] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", c)
		}
	}

	var (
		out []*recipe.Recipe
		bad []rowError
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return out, bad, fmt.Errorf("read rows: %w", err)
			}
			bad = append(bad, rowError{Line: pe.StartLine, Err: err})
			continue
		}
		// Quoted fields may span lines, so report where the record starts.
		line, _ := cr.FieldPos(0)
		r, err := parseRow(func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		})
		if err != nil {
			bad = append(bad, rowError{Line: line, Err: err})
			continue
		}
		out = append(out, r)
	}
	return out, bad, nil
}

func parseRow(field func(string) string) (*recipe.Recipe, error) {
	title := field("title")
	if title == "" {
		return nil, errors.New("title is empty")
	}
	ings, err := recipe.ParseLegacy(field("ingredients"), field("quantities"))
	if err != nil {
		return nil, err
	}
	if len(ings) == 0 {
		return nil, errors.New("no ingredients")
	}

	r := &recipe.Recipe{
		Title:             title,
		Description:       field("description"),
		Ingredients:       ings,
		Steps:             recipe.SplitSteps(field("steps")),
		CuisineType:       field("cuisine_type"),
		DietaryPreference: field("dietary_preference"),
		DifficultyLevel:   field("difficulty_level"),
		MealType:          field("meal_type"),
		ImageURL:          field("image_url"),
	}
	if v := field("allergens"); v != "" {
		r.Allergens = &v
	}
	for name, dst := range map[string]**float64{
		"calories": &r.Calories,
		"protein":  &r.Protein,
		"carbs":    &r.Carbs,
		"fats":     &r.Fats,
	} {
		v, err := optionalFloat(field(name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		*dst = v
	}
	for name, dst := range map[string]**int{
		"cooking_time": &r.CookingTime,
		"servings":     &r.Servings,
	} {
		v, err := optionalInt(field(name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		*dst = v
	}
	return r, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
