package api

import (
	"context"
	"time"

	"cookmate/internal/account"
	"cookmate/internal/grocery"
	"cookmate/internal/platform/logger"
	"cookmate/internal/rating"
	"cookmate/internal/recipe"
)

// AccountService defines the account and preference operations.
type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (*account.Account, error)
	Verify(ctx context.Context, email, code string) error
	Resend(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*account.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	Profile(ctx context.Context, userID int64) (*account.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, fullName string, dob *time.Time) (*account.Account, error)
	SavePreferences(ctx context.Context, p account.Preferences) (*account.Preferences, error)
	Preferences(ctx context.Context, userID int64) (*account.Preferences, error)
}

// RecipeService defines catalog queries and favorites.
type RecipeService interface {
	List(ctx context.Context, f recipe.ListFilter, viewerID int64) ([]*recipe.Recipe, error)
	Search(ctx context.Context, f recipe.SearchFilter, viewerID int64) ([]*recipe.Recipe, error)
	Recommended(ctx context.Context, viewerID int64) ([]*recipe.Recipe, error)
	TopRated(ctx context.Context, limit int, viewerID int64) ([]*recipe.Recipe, error)
	Get(ctx context.Context, id, viewerID int64) (*recipe.Recipe, error)
	ToggleFavorite(ctx context.Context, userID, recipeID int64) (bool, error)
	RemoveFavorite(ctx context.Context, userID, recipeID int64) error
	Favorites(ctx context.Context, userID int64) ([]*recipe.Recipe, error)
}

// RatingService defines the rating aggregator operations.
type RatingService interface {
	Upsert(ctx context.Context, recipeID, userID int64, score int, comment string) (*rating.UpsertResult, error)
	Delete(ctx context.Context, recipeID, userID int64) (rating.Aggregate, error)
	ForRecipe(ctx context.Context, recipeID, viewerID int64) (*rating.Summary, error)
	Mine(ctx context.Context, recipeID, userID int64) (*rating.Rating, error)
	Distribution(ctx context.Context, recipeID int64) ([]rating.Bucket, error)
}

// GroceryService defines the grocery list operations.
type GroceryService interface {
	List(ctx context.Context, userID int64) ([]*grocery.Entry, error)
	AddRecipe(ctx context.Context, userID, recipeID int64) (*grocery.Entry, error)
	ToggleItem(ctx context.Context, userID, entryID int64, index int) (*grocery.Entry, error)
	Delete(ctx context.Context, userID, entryID int64) error
	Clear(ctx context.Context, userID int64) (int64, error)
}

// PantryScanner turns a photo into ingredient names.
type PantryScanner interface {
	Scan(ctx context.Context, image []byte) ([]string, error)
}

// Pinger reports database health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler handles HTTP requests.
type Handler struct {
	Accounts AccountService
	Recipes  RecipeService
	Ratings  RatingService
	Grocery  GroceryService
	Pantry   PantryScanner
	DB       Pinger
	Log      *logger.Logger
}

// NewHandler creates a new Handler.
func NewHandler(accounts AccountService, recipes RecipeService, ratings RatingService, groceries GroceryService, pantry PantryScanner, db Pinger, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		Accounts: accounts,
		Recipes:  recipes,
		Ratings:  ratings,
		Grocery:  groceries,
		Pantry:   pantry,
		DB:       db,
		Log:      log,
	}
}
