package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cookmate/internal/match"
	"cookmate/internal/recipe"
)

// ListRecipes handles the catalog browse view.
func (h *Handler) ListRecipes(c *gin.Context) {
	f := recipe.ListFilter{
		MealType: c.Query("mealType"),
		Cuisine:  c.Query("cuisine"),
		Search:   c.Query("search"),
		Sort:     recipe.SortOrder(c.Query("sortBy")),
	}
	recipes, err := h.Recipes.List(c.Request.Context(), f, userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// SearchByIngredients handles the mandatory-AND ingredient search. With
// ranked=true each result carries its match score and missing ingredients.
func (h *Handler) SearchByIngredients(c *gin.Context) {
	f := recipe.SearchFilter{
		Ingredients: splitCSV(c.Query("ingredients")),
		Difficulty:  c.Query("difficulty"),
		MealTypes:   splitCSV(c.Query("mealType")),
		Dietary:     splitCSV(c.Query("dietary")),
		Cuisines:    splitCSV(c.Query("cuisine")),
	}
	recipes, err := h.Recipes.Search(c.Request.Context(), f, userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	if ranked, _ := strconv.ParseBool(c.Query("ranked")); ranked {
		c.JSON(http.StatusOK, match.Rank(recipes, match.Criteria{
			Ingredients: f.Ingredients,
			Dietary:     f.Dietary,
			Difficulty:  f.Difficulty,
			MealTypes:   f.MealTypes,
			Cuisines:    f.Cuisines,
		}))
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (h *Handler) Recommended(c *gin.Context) {
	recipes, err := h.Recipes.Recommended(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// GetRecipe handles requests to retrieve a single recipe by id.
func (h *Handler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.Recipes.Get(c.Request.Context(), id, userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) ToggleFavorite(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	fav, err := h.Recipes.ToggleFavorite(c.Request.Context(), userID(c), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	msg := "Removed from favorites"
	if fav {
		msg = "Added to favorites"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "is_favorite": fav})
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Recipes.RemoveFavorite(c.Request.Context(), userID(c), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites", "is_favorite": false})
}

func (h *Handler) Favorites(c *gin.Context) {
	recipes, err := h.Recipes.Favorites(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}
