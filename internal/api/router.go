package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterOptions carries the cross-cutting pieces the routes need besides
// the handler.
type RouterOptions struct {
	CORSOrigins []string
	Tokens      TokenParser
	// Limiter guards credential and OTP endpoints. Nil disables limiting.
	Limiter Limiter
}

func init() {
	gin.EnableJsonDecoderDisallowUnknownFields()
}

// NewRouter builds the gin engine with every route under /api.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(h.Log))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	required := RequireAuth(opts.Tokens)
	optional := OptionalAuth(opts.Tokens)
	limited := func(scope string) gin.HandlerFunc { return RateLimit(opts.Limiter, scope, h.Log) }

	api := r.Group("/api")
	api.GET("/healthz", h.Health)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", limited("register"), h.Register)
		authGroup.POST("/verify-otp", h.VerifyOTP)
		authGroup.POST("/resend-otp", limited("otp"), h.ResendOTP)
		authGroup.POST("/login", limited("login"), h.Login)
		authGroup.POST("/forgot-password", limited("otp"), h.ForgotPassword)
		authGroup.POST("/reset-password", limited("reset"), h.ResetPassword)

		authGroup.GET("/profile", required, h.Profile)
		authGroup.PUT("/profile", required, h.UpdateProfile)
		authGroup.PUT("/preferences", required, h.SavePreferences)
		authGroup.PUT("/change-password", required, h.ChangePassword)
		authGroup.POST("/logout", required, h.Logout)
	}

	prefs := api.Group("/preferences", required)
	{
		prefs.GET("", h.GetPreferences)
		prefs.PUT("", h.SavePreferences)
	}

	recipes := api.Group("/recipes")
	{
		recipes.GET("", optional, h.ListRecipes)
		recipes.GET("/recommended", optional, h.Recommended)
		recipes.GET("/search/ingredients", optional, h.SearchByIngredients)
		recipes.GET("/user/favorites", required, h.Favorites)
		recipes.GET("/:id", optional, h.GetRecipe)
		recipes.POST("/:id/favorite", required, h.ToggleFavorite)
		recipes.DELETE("/:id/favorite", required, h.RemoveFavorite)
	}

	ratings := api.Group("/ratings")
	{
		ratings.GET("/top", optional, h.TopRated)
		ratings.GET("/:recipeId", optional, h.RecipeRatings)
		ratings.GET("/:recipeId/mine", required, h.MyRating)
		ratings.GET("/:recipeId/distribution", h.RatingDistribution)
		ratings.POST("/:recipeId", required, h.UpsertRating)
		ratings.DELETE("/:recipeId", required, h.DeleteRating)
	}

	groceries := api.Group("/grocery", required)
	{
		groceries.GET("", h.GroceryList)
		groceries.POST("/add-recipe/:recipeId", h.AddRecipeToGrocery)
		groceries.PUT("/toggle/:groceryItemId", h.ToggleGroceryItem)
		groceries.DELETE("/:groceryItemId", h.DeleteGroceryEntry)
		groceries.DELETE("", h.ClearGrocery)
	}

	api.POST("/pantry/scan", optional, limited("pantry"), h.ScanPantry)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", headerRequestID},
		ExposeHeaders:    []string{"Content-Length", headerRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
