package api

import (
	"context"
	"errors"
	"time"

	"cookmate/internal/account"
	"cookmate/internal/grocery"
	"cookmate/internal/platform/apierr"
	"cookmate/internal/rating"
	"cookmate/internal/recipe"
)

var errNotStubbed = errors.New("not stubbed")

type fakeAccounts struct {
	registered account.RegisterInput
	savedPrefs account.Preferences
	verifyErr  error
	loginFn    func(email, password string) (*account.Session, error)
	profileFor int64
}

func (f *fakeAccounts) Register(ctx context.Context, in account.RegisterInput) (*account.Account, error) {
	f.registered = in
	if in.Email == "taken@x.com" {
		return nil, apierr.Conflict("email_taken", "User already exists with this email")
	}
	return &account.Account{ID: 1, FullName: in.FullName, Email: in.Email, Username: "ana"}, nil
}

func (f *fakeAccounts) Verify(ctx context.Context, email, code string) error { return f.verifyErr }
func (f *fakeAccounts) Resend(ctx context.Context, email string) error       { return nil }

func (f *fakeAccounts) Login(ctx context.Context, email, password string) (*account.Session, error) {
	if f.loginFn == nil {
		return nil, errNotStubbed
	}
	return f.loginFn(email, password)
}

func (f *fakeAccounts) ForgotPassword(ctx context.Context, email string) error { return nil }
func (f *fakeAccounts) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return nil
}
func (f *fakeAccounts) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	return nil
}

func (f *fakeAccounts) Profile(ctx context.Context, userID int64) (*account.Profile, error) {
	f.profileFor = userID
	return &account.Profile{Account: account.Account{ID: userID, FullName: "Ana", Email: "ana@x.com"}}, nil
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, userID int64, fullName string, dob *time.Time) (*account.Account, error) {
	return &account.Account{ID: userID, FullName: fullName, DateOfBirth: dob}, nil
}

func (f *fakeAccounts) SavePreferences(ctx context.Context, p account.Preferences) (*account.Preferences, error) {
	f.savedPrefs = p
	return &p, nil
}

func (f *fakeAccounts) Preferences(ctx context.Context, userID int64) (*account.Preferences, error) {
	return nil, apierr.NotFound("preferences_not_found", "No preferences saved")
}

type fakeRecipes struct {
	recipes    []*recipe.Recipe
	err        error
	viewer     int64
	search     recipe.SearchFilter
	list       recipe.ListFilter
	topLimit   int
	favoriteOn bool
}

func (f *fakeRecipes) List(ctx context.Context, lf recipe.ListFilter, viewerID int64) ([]*recipe.Recipe, error) {
	f.list, f.viewer = lf, viewerID
	return f.recipes, f.err
}

func (f *fakeRecipes) Search(ctx context.Context, sf recipe.SearchFilter, viewerID int64) ([]*recipe.Recipe, error) {
	f.search, f.viewer = sf, viewerID
	return f.recipes, f.err
}

func (f *fakeRecipes) Recommended(ctx context.Context, viewerID int64) ([]*recipe.Recipe, error) {
	f.viewer = viewerID
	return f.recipes, f.err
}

func (f *fakeRecipes) TopRated(ctx context.Context, limit int, viewerID int64) ([]*recipe.Recipe, error) {
	f.topLimit = limit
	return f.recipes, f.err
}

func (f *fakeRecipes) Get(ctx context.Context, id, viewerID int64) (*recipe.Recipe, error) {
	f.viewer = viewerID
	for _, r := range f.recipes {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, apierr.NotFound("recipe_not_found", "Recipe not found")
}

func (f *fakeRecipes) ToggleFavorite(ctx context.Context, userID, recipeID int64) (bool, error) {
	f.favoriteOn = !f.favoriteOn
	return f.favoriteOn, nil
}

func (f *fakeRecipes) RemoveFavorite(ctx context.Context, userID, recipeID int64) error { return nil }

func (f *fakeRecipes) Favorites(ctx context.Context, userID int64) ([]*recipe.Recipe, error) {
	f.viewer = userID
	return f.recipes, f.err
}

type fakeRatings struct {
	score int
}

func (f *fakeRatings) Upsert(ctx context.Context, recipeID, userID int64, score int, comment string) (*rating.UpsertResult, error) {
	if score < rating.MinScore || score > rating.MaxScore {
		return nil, apierr.Validation("rating_out_of_range", "Rating must be between 1 and 5")
	}
	f.score = score
	return &rating.UpsertResult{
		Rating:    &rating.Rating{RecipeID: recipeID, UserID: userID, Score: score},
		Created:   true,
		Aggregate: rating.Aggregate{Average: float64(score), Count: 1},
	}, nil
}

func (f *fakeRatings) Delete(ctx context.Context, recipeID, userID int64) (rating.Aggregate, error) {
	return rating.Aggregate{}, apierr.NotFound("rating_not_found", "Rating not found")
}

func (f *fakeRatings) ForRecipe(ctx context.Context, recipeID, viewerID int64) (*rating.Summary, error) {
	return &rating.Summary{Ratings: []rating.Rating{}}, nil
}

func (f *fakeRatings) Mine(ctx context.Context, recipeID, userID int64) (*rating.Rating, error) {
	return nil, nil
}

func (f *fakeRatings) Distribution(ctx context.Context, recipeID int64) ([]rating.Bucket, error) {
	return []rating.Bucket{}, nil
}

type fakeGrocery struct {
	toggledIndex int
}

func (f *fakeGrocery) List(ctx context.Context, userID int64) ([]*grocery.Entry, error) {
	return []*grocery.Entry{}, nil
}

func (f *fakeGrocery) AddRecipe(ctx context.Context, userID, recipeID int64) (*grocery.Entry, error) {
	return &grocery.Entry{ID: 9, UserID: userID, RecipeID: recipeID, Ingredients: grocery.Items{}}, nil
}

func (f *fakeGrocery) ToggleItem(ctx context.Context, userID, entryID int64, index int) (*grocery.Entry, error) {
	f.toggledIndex = index
	return &grocery.Entry{
		ID:          entryID,
		UserID:      userID,
		Ingredients: grocery.Items{{Name: "egg", Quantity: "2", Checked: true}},
		Complete:    true,
	}, nil
}

func (f *fakeGrocery) Delete(ctx context.Context, userID, entryID int64) error { return nil }
func (f *fakeGrocery) Clear(ctx context.Context, userID int64) (int64, error) { return 3, nil }

type fakePantry struct {
	got []byte
	err error
}

func (f *fakePantry) Scan(ctx context.Context, image []byte) ([]string, error) {
	f.got = image
	if f.err != nil {
		return nil, f.err
	}
	return []string{"egg", "milk"}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}
