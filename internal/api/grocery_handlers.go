package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GroceryList(c *gin.Context) {
	entries, err := h.Grocery.List(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// AddRecipeToGrocery copies a recipe's ingredients into the caller's list.
func (h *Handler) AddRecipeToGrocery(c *gin.Context) {
	id, ok := pathID(c, "recipeId")
	if !ok {
		return
	}
	entry, err := h.Grocery.AddRecipe(c.Request.Context(), userID(c), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Recipe added to grocery list", "item": entry})
}

// ToggleGroceryItem flips one ingredient's checked flag. The response's
// complete field tells the client when every item is checked.
func (h *Handler) ToggleGroceryItem(c *gin.Context) {
	id, ok := pathID(c, "groceryItemId")
	if !ok {
		return
	}
	var req toggleItemRequest
	if !bind(c, &req) {
		return
	}
	if req.IngredientIndex == nil {
		badRequest(c, "missing_fields", "ingredient_index is required")
		return
	}
	entry, err := h.Grocery.ToggleItem(c.Request.Context(), userID(c), id, *req.IngredientIndex)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ingredient toggled", "item": entry})
}

func (h *Handler) DeleteGroceryEntry(c *gin.Context) {
	id, ok := pathID(c, "groceryItemId")
	if !ok {
		return
	}
	if err := h.Grocery.Delete(c.Request.Context(), userID(c), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	message(c, http.StatusOK, "Grocery item deleted")
}

func (h *Handler) ClearGrocery(c *gin.Context) {
	n, err := h.Grocery.Clear(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Grocery list cleared", "removed": n})
}
