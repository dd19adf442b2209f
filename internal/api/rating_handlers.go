package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cookmate/internal/recipe"
)

const maxTopLimit = 100

// UpsertRating creates or replaces the caller's rating of a recipe.
func (h *Handler) UpsertRating(c *gin.Context) {
	id, ok := pathID(c, "recipeId")
	if !ok {
		return
	}
	var req ratingRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.Ratings.Upsert(c.Request.Context(), id, userID(c), req.Rating, req.Comment)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	msg := "Rating updated"
	if res.Created {
		msg = "Rating added"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "rating": res.Rating, "recipe": res.Aggregate})
}

func (h *Handler) DeleteRating(c *gin.Context) {
	id, ok := pathID(c, "recipeId")
	if !ok {
		return
	}
	agg, err := h.Ratings.Delete(c.Request.Context(), id, userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rating deleted successfully", "recipe": agg})
}

// RecipeRatings returns every rating of a recipe with its statistics and,
// for a signed-in caller, their own rating.
func (h *Handler) RecipeRatings(c *gin.Context) {
	id, ok := pathID(c, "recipeId")
	if !ok {
		return
	}
	sum, err := h.Ratings.ForRecipe(c.Request.Context(), id, userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) MyRating(c *gin.Context) {
	id, ok := pathID(c, "recipeId")
	if !ok {
		return
	}
	r, err := h.Ratings.Mine(c.Request.Context(), id, userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rating": r})
}

func (h *Handler) RatingDistribution(c *gin.Context) {
	id, ok := pathID(c, "recipeId")
	if !ok {
		return
	}
	buckets, err := h.Ratings.Distribution(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

func (h *Handler) TopRated(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = recipe.DefaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	recipes, err := h.Recipes.TopRated(c.Request.Context(), limit, userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}
