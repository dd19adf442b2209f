package rating

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookmate/internal/platform/apierr"
	"cookmate/internal/platform/logger"
)

type key struct{ recipe, user int64 }

type memStore struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[key]*Rating
	recipes map[int64]Aggregate

	recomputeErr error
	statsErr     error
}

func newMemStore(recipeIDs ...int64) *memStore {
	m := &memStore{rows: map[key]*Rating{}, recipes: map[int64]Aggregate{}}
	for _, id := range recipeIDs {
		m.recipes[id] = Aggregate{}
	}
	return m
}

func (m *memStore) Upsert(ctx context.Context, recipeID, userID int64, score int, comment *string) (*Rating, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[recipeID]; !ok {
		return nil, false, ErrRecipeNotFound
	}
	k := key{recipeID, userID}
	if r, ok := m.rows[k]; ok {
		r.Score, r.Comment, r.CreatedAt = score, comment, time.Now()
		cp := *r
		return &cp, false, nil
	}
	m.nextID++
	r := &Rating{ID: m.nextID, RecipeID: recipeID, UserID: userID, Score: score, Comment: comment, CreatedAt: time.Now()}
	m.rows[k] = r
	cp := *r
	return &cp, true, nil
}

func (m *memStore) Delete(ctx context.Context, recipeID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{recipeID, userID}
	_, ok := m.rows[k]
	delete(m.rows, k)
	return ok, nil
}

func (m *memStore) Recompute(ctx context.Context, recipeID int64) (Aggregate, error) {
	if m.recomputeErr != nil {
		return Aggregate{}, m.recomputeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sum, n := 0, 0
	for k, r := range m.rows {
		if k.recipe == recipeID {
			sum += r.Score
			n++
		}
	}
	agg := Aggregate{Count: n}
	if n > 0 {
		agg.Average = math.Round(float64(sum)/float64(n)*10) / 10
	}
	m.recipes[recipeID] = agg
	return agg, nil
}

func (m *memStore) ForRecipe(ctx context.Context, recipeID int64) ([]Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Rating{}
	for k, r := range m.rows {
		if k.recipe == recipeID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) Stats(ctx context.Context, recipeID int64) (Stats, error) {
	if m.statsErr != nil {
		return Stats{}, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var st Stats
	for k, r := range m.rows {
		if k.recipe != recipeID {
			continue
		}
		st.Total++
		switch r.Score {
		case 5:
			st.FiveStar++
		case 4:
			st.FourStar++
		case 3:
			st.ThreeStar++
		case 2:
			st.TwoStar++
		case 1:
			st.OneStar++
		}
	}
	st.Average = m.recipes[recipeID].Average
	return st, nil
}

func (m *memStore) ByUser(ctx context.Context, recipeID, userID int64) (*Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[key{recipeID, userID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) Distribution(ctx context.Context, recipeID int64) ([]Bucket, error) {
	return nil, nil
}

func TestUpsertRejectsOutOfRange(t *testing.T) {
	svc := NewService(newMemStore(1), logger.Nop())

	for _, score := range []int{0, 6, -1} {
		_, err := svc.Upsert(context.Background(), 1, 1, score, "")
		require.Error(t, err)
		assert.Equal(t, "rating_out_of_range", apierr.From(err).Code)
		assert.True(t, apierr.Is(err, apierr.KindValidation))
	}
}

func TestUpsertOverwritesInPlace(t *testing.T) {
	store := newMemStore(1)
	svc := NewService(store, logger.Nop())
	ctx := context.Background()

	first, err := svc.Upsert(ctx, 1, 10, 4, "nice")
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := svc.Upsert(ctx, 1, 10, 2, "")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Rating.ID, second.Rating.ID)
	assert.Nil(t, second.Rating.Comment)

	assert.Len(t, store.rows, 1)
	assert.Equal(t, 2, store.rows[key{1, 10}].Score)
	assert.Equal(t, Aggregate{Average: 2, Count: 1}, second.Aggregate)
}

func TestAverageIsRoundedToOneDecimal(t *testing.T) {
	store := newMemStore(1)
	svc := NewService(store, logger.Nop())
	ctx := context.Background()

	var res *UpsertResult
	var err error
	for user, score := range []int{5, 4, 4} {
		res, err = svc.Upsert(ctx, 1, int64(user+1), score, "")
		require.NoError(t, err)
	}
	// 13/3 = 4.333...
	assert.Equal(t, 4.3, res.Aggregate.Average)
	assert.Equal(t, 3, res.Aggregate.Count)
}

func TestUpsertUnknownRecipe(t *testing.T) {
	svc := NewService(newMemStore(), logger.Nop())

	_, err := svc.Upsert(context.Background(), 404, 1, 3, "")
	assert.True(t, apierr.Is(err, apierr.KindNotFound))
}

func TestUpsertRecomputeFailureSurfaces(t *testing.T) {
	store := newMemStore(1)
	store.recomputeErr = errors.New("lost connection")
	svc := NewService(store, logger.Nop())

	_, err := svc.Upsert(context.Background(), 1, 1, 5, "")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindInternal))
	assert.Len(t, store.rows, 1, "the rating itself is kept")
}

func TestDeleteRecomputes(t *testing.T) {
	store := newMemStore(1)
	svc := NewService(store, logger.Nop())
	ctx := context.Background()

	_, err := svc.Delete(ctx, 1, 1)
	assert.True(t, apierr.Is(err, apierr.KindNotFound))

	_, err = svc.Upsert(ctx, 1, 1, 5, "")
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, 1, 2, 2, "")
	require.NoError(t, err)

	agg, err := svc.Delete(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, Aggregate{Average: 2, Count: 1}, agg)
}

func TestForRecipeIncludesCallerRating(t *testing.T) {
	store := newMemStore(1)
	svc := NewService(store, logger.Nop())
	ctx := context.Background()

	_, err := svc.Upsert(ctx, 1, 1, 5, "great")
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, 1, 2, 3, "")
	require.NoError(t, err)

	sum, err := svc.ForRecipe(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, sum.Ratings, 2)
	assert.Equal(t, 2, sum.Statistics.Total)
	assert.Equal(t, 1, sum.Statistics.FiveStar)
	assert.Equal(t, 1, sum.Statistics.ThreeStar)
	require.NotNil(t, sum.UserRating)
	assert.Equal(t, 3, sum.UserRating.Score)

	anon, err := svc.ForRecipe(ctx, 1, 0)
	require.NoError(t, err)
	assert.Nil(t, anon.UserRating)

	none, err := svc.ForRecipe(ctx, 1, 99)
	require.NoError(t, err)
	assert.Nil(t, none.UserRating)
}

func TestForRecipeFailsWhenAnyPartFails(t *testing.T) {
	store := newMemStore(1)
	store.statsErr = errors.New("timeout")
	svc := NewService(store, logger.Nop())

	_, err := svc.ForRecipe(context.Background(), 1, 0)
	assert.True(t, apierr.Is(err, apierr.KindInternal))
}

func TestMine(t *testing.T) {
	store := newMemStore(1)
	svc := NewService(store, logger.Nop())
	ctx := context.Background()

	r, err := svc.Mine(ctx, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = svc.Upsert(ctx, 1, 1, 4, "")
	require.NoError(t, err)
	r, err = svc.Mine(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Score)
}
