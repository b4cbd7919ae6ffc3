package recommend_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/skillswap/internal/profile"
	"github.com/sudo-init-do/skillswap/internal/recommend"
	"github.com/sudo-init-do/skillswap/internal/swap"
)

type mockRequestSource struct {
	listOpenForUserFn func(ctx context.Context, userID string) ([]swap.SwapRequest, error)
}

func (m *mockRequestSource) ListOpenForUser(ctx context.Context, userID string) ([]swap.SwapRequest, error) {
	if m.listOpenForUserFn != nil {
		return m.listOpenForUserFn(ctx, userID)
	}
	return nil, nil
}

type mockDirectory struct {
	getProfileFn func(ctx context.Context, userID string) (*profile.Profile, error)
}

func (m *mockDirectory) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, userID)
	}
	return nil, profile.ErrNotFound
}

func request(id string, createdAt time.Time, categories []string, required, location string) swap.SwapRequest {
	return swap.SwapRequest{
		ID:                id,
		OwnerID:           "owner-" + id,
		ServiceTitle:      "offer " + id,
		ServiceCategories: categories,
		ServiceRequired:   required,
		PreferredLocation: location,
		Status:            swap.StatusOpen,
		CreatedAt:         createdAt,
	}
}

func TestScore(t *testing.T) {
	prof := &profile.Profile{
		Skills:     []string{"web design", "photography"},
		Categories: []string{"design", "media"},
		City:       "Lagos",
		Active:     true,
	}

	t.Run("category overlap counts per shared category", func(t *testing.T) {
		req := request("a", time.Now(), []string{"design", "media", "music"}, "", "")
		assert.Equal(t, 8, recommend.Score(&req, prof))
	})

	t.Run("skill match is bidirectional substring", func(t *testing.T) {
		// profile skill "web design" contains the ask "design"
		req := request("a", time.Now(), nil, "design", "")
		assert.Equal(t, 2, recommend.Score(&req, prof))

		// the ask "event photography services" contains the skill "photography"
		req = request("b", time.Now(), nil, "event photography services", "")
		assert.Equal(t, 2, recommend.Score(&req, prof))
	})

	t.Run("location matches case-insensitively", func(t *testing.T) {
		req := request("a", time.Now(), nil, "", "lagos")
		assert.Equal(t, 1, recommend.Score(&req, prof))
	})

	t.Run("one extra category beats skill plus location", func(t *testing.T) {
		twoCats := request("a", time.Now(), []string{"design", "media"}, "", "")
		oneCatAll := request("b", time.Now(), []string{"design"}, "design", "Lagos")
		assert.Greater(t, recommend.Score(&twoCats, prof), recommend.Score(&oneCatAll, prof))
	})

	t.Run("nothing in common scores zero", func(t *testing.T) {
		req := request("a", time.Now(), []string{"plumbing"}, "welding", "Abuja")
		assert.Equal(t, 0, recommend.Score(&req, prof))
	})
}

func TestRank(t *testing.T) {
	now := time.Now()
	prof := &profile.Profile{
		Skills:     []string{"carpentry"},
		Categories: []string{"woodwork"},
		City:       "Ibadan",
		Active:     true,
	}

	t.Run("orders by score then recency, drops zero scores", func(t *testing.T) {
		reqs := []swap.SwapRequest{
			request("old-strong", now.Add(-2*time.Hour), []string{"woodwork"}, "carpentry", "Ibadan"),
			request("zero", now, []string{"catering"}, "baking", ""),
			request("new-weak", now.Add(-time.Minute), nil, "carpentry", ""),
			request("tied-newer", now, []string{"woodwork"}, "carpentry", "Ibadan"),
		}

		ranked := recommend.Rank(reqs, prof)
		require.Len(t, ranked, 3)
		assert.Equal(t, "tied-newer", ranked[0].Request.ID)
		assert.Equal(t, "old-strong", ranked[1].Request.ID)
		assert.Equal(t, "new-weak", ranked[2].Request.ID)
	})

	t.Run("empty input yields empty ranking", func(t *testing.T) {
		assert.Empty(t, recommend.Rank(nil, prof))
	})
}

// The engine serves as the profile package's invalidation hook.
var _ profile.RankingInvalidator = (*recommend.Engine)(nil)

func TestInvalidateWithoutCache(t *testing.T) {
	engine := recommend.NewEngine(&mockRequestSource{}, &mockDirectory{}, nil)
	engine.Invalidate(context.Background(), "user-1")
}

func TestRecommend(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	activeProfile := &profile.Profile{
		ID:         "user-1",
		Skills:     []string{"spanish"},
		Categories: []string{"language"},
		City:       "Madrid",
		Active:     true,
	}

	t.Run("returns ranked candidates up to limit", func(t *testing.T) {
		source := &mockRequestSource{
			listOpenForUserFn: func(_ context.Context, _ string) ([]swap.SwapRequest, error) {
				return []swap.SwapRequest{
					request("a", now, []string{"language"}, "spanish", "Madrid"),
					request("b", now, []string{"language"}, "", ""),
					request("c", now, []string{"cooking"}, "baking", ""),
				}, nil
			},
		}
		directory := &mockDirectory{
			getProfileFn: func(_ context.Context, _ string) (*profile.Profile, error) {
				return activeProfile, nil
			},
		}
		engine := recommend.NewEngine(source, directory, nil)

		got, err := engine.Recommend(ctx, "user-1", 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].Request.ID)
		assert.Equal(t, 7, got[0].Score)
	})

	t.Run("all-zero scores mean no recommendations", func(t *testing.T) {
		source := &mockRequestSource{
			listOpenForUserFn: func(_ context.Context, _ string) ([]swap.SwapRequest, error) {
				return []swap.SwapRequest{
					request("c", now, []string{"cooking"}, "baking", ""),
				}, nil
			},
		}
		directory := &mockDirectory{
			getProfileFn: func(_ context.Context, _ string) (*profile.Profile, error) {
				return activeProfile, nil
			},
		}
		engine := recommend.NewEngine(source, directory, nil)

		got, err := engine.Recommend(ctx, "user-1", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("inactive profile gets nothing", func(t *testing.T) {
		directory := &mockDirectory{
			getProfileFn: func(_ context.Context, _ string) (*profile.Profile, error) {
				return &profile.Profile{ID: "user-1", Active: false}, nil
			},
		}
		engine := recommend.NewEngine(&mockRequestSource{}, directory, nil)

		got, err := engine.Recommend(ctx, "user-1", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown profile propagates not found", func(t *testing.T) {
		engine := recommend.NewEngine(&mockRequestSource{}, &mockDirectory{}, nil)

		_, err := engine.Recommend(ctx, "ghost", 10)
		assert.ErrorIs(t, err, profile.ErrNotFound)
	})
}
