package recipe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitListPrefersNewline(t *testing.T) {
	assert.Equal(t, []string{"egg; large", "flour"}, SplitList("egg; large\nflour\n"))
	assert.Equal(t, []string{"egg", "flour", "milk"}, SplitList("egg; flour;  milk ;"))
	assert.Empty(t, SplitList("  "))
}

func TestSplitSteps(t *testing.T) {
	assert.Equal(t, []string{"Whisk", "Bake 20 min"}, SplitSteps("Whisk | | Bake 20 min"))
}

func TestParseLegacy(t *testing.T) {
	ings, err := ParseLegacy("egg; flour; milk", "2; 1 cup; 250 ml")
	require.NoError(t, err)
	assert.Equal(t, []Ingredient{
		{Name: "egg", Quantity: "2"},
		{Name: "flour", Quantity: "1 cup"},
		{Name: "milk", Quantity: "250 ml"},
	}, ings)
}

func TestParseLegacyMismatch(t *testing.T) {
	_, err := ParseLegacy("egg\nflour\nmilk", "2\n1 cup")
	require.Error(t, err)

	var mismatch *ErrQuantityMismatch
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 3, mismatch.Ingredients)
	assert.Equal(t, 2, mismatch.Quantities)
}

func TestIngredientText(t *testing.T) {
	r := &Recipe{Ingredients: []Ingredient{{Name: "Egg"}, {Name: "Flour"}}}
	assert.Equal(t, "egg\nflour", r.IngredientText())
	assert.Equal(t, []string{"Egg", "Flour"}, r.IngredientNames())
}
