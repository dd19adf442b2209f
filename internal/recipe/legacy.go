package recipe

import (
	"fmt"
	"strings"
)

// ErrQuantityMismatch reports a legacy row whose ingredient and quantity
// lists do not line up.
type ErrQuantityMismatch struct {
	Ingredients int
	Quantities  int
}

func (e *ErrQuantityMismatch) Error() string {
	return fmt.Sprintf("ingredient/quantity count mismatch: %d ingredients, %d quantities", e.Ingredients, e.Quantities)
}

// SplitList splits a legacy delimited list. Newline wins when present,
// otherwise semicolon. Entries are trimmed and blanks dropped.
func SplitList(s string) []string {
	sep := ";"
	if strings.Contains(s, "\n") {
		sep = "\n"
	}
	return splitTrim(s, sep)
}

// SplitSteps splits a pipe-delimited step list.
func SplitSteps(s string) []string {
	return splitTrim(s, "|")
}

// ParseLegacy turns the delimited ingredient and quantity strings of an old
// catalog row into a structured list. It never pads or truncates: a length
// mismatch is returned as *ErrQuantityMismatch.
func ParseLegacy(ingredients, quantities string) ([]Ingredient, error) {
	names := SplitList(ingredients)
	qty := SplitList(quantities)
	if len(names) != len(qty) {
		return nil, &ErrQuantityMismatch{Ingredients: len(names), Quantities: len(qty)}
	}
	return zipIngredients(names, qty), nil
}

func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
