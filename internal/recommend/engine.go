package recommend

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/sudo-init-do/skillswap/internal/profile"
	"github.com/sudo-init-do/skillswap/internal/swap"
)

// RequestSource is the slice of the request store the engine reads: open
// requests the user does not own and has not interacted with.
type RequestSource interface {
	ListOpenForUser(ctx context.Context, userID string) ([]swap.SwapRequest, error)
}

// Candidate pairs a request with its match score against the target user.
type Candidate struct {
	Request swap.SwapRequest `json:"request"`
	Score   int              `json:"score"`
}

// Engine ranks open swap requests against a user's profile. It holds no
// state of its own; every call recomputes from the store, optionally short-
// circuited by a small TTL cache.
type Engine struct {
	requests  RequestSource
	directory profile.Directory
	cache     *Cache
}

func NewEngine(requests RequestSource, directory profile.Directory, cache *Cache) *Engine {
	return &Engine{requests: requests, directory: directory, cache: cache}
}

// Scoring weights. Category overlap dominates: one extra shared category
// outranks any combination of the two secondary criteria.
const (
	categoryWeight = 4
	skillWeight    = 2
	locationWeight = 1
)

// Recommend returns up to limit open requests ranked by match score, highest
// first, ties broken by most recent creation. Requests scoring zero on every
// criterion are left out; callers fall back to the unranked open listing when
// nothing scores.
func (e *Engine) Recommend(ctx context.Context, userID string, limit int) ([]Candidate, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, userID); ok {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			return cached, nil
		}
	}

	prof, err := e.directory.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("looking up profile: %w", err)
	}
	if !prof.Active {
		return nil, nil
	}

	requests, err := e.requests.ListOpenForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}

	candidates := Rank(requests, prof)
	if e.cache != nil {
		e.cache.Set(ctx, userID, candidates)
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// Rank scores and orders requests against a profile, dropping zero scores.
// The input is expected to already exclude the user's own and
// already-interacted requests.
func Rank(requests []swap.SwapRequest, prof *profile.Profile) []Candidate {
	candidates := make([]Candidate, 0, len(requests))
	for _, req := range requests {
		if score := Score(&req, prof); score > 0 {
			candidates = append(candidates, Candidate{Request: req, Score: score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Request.CreatedAt.After(candidates[j].Request.CreatedAt)
	})
	return candidates
}

// Score computes the match score of one request against a profile: shared
// categories weighted heaviest, then whether any of the user's skills matches
// the service the owner is asking for, then location.
func Score(req *swap.SwapRequest, prof *profile.Profile) int {
	score := categoryWeight * categoryOverlap(req.ServiceCategories, prof.Categories)
	if skillMatches(req.ServiceRequired, prof.Skills) {
		score += skillWeight
	}
	if req.PreferredLocation != "" && strings.EqualFold(req.PreferredLocation, prof.City) {
		score += locationWeight
	}
	return score
}

func categoryOverlap(reqCategories, userCategories []string) int {
	if len(reqCategories) == 0 || len(userCategories) == 0 {
		return 0
	}
	set := make(map[string]bool, len(userCategories))
	for _, c := range userCategories {
		set[strings.ToLower(strings.TrimSpace(c))] = true
	}
	overlap := 0
	for _, c := range reqCategories {
		if set[strings.ToLower(strings.TrimSpace(c))] {
			overlap++
		}
	}
	return overlap
}

// skillMatches reports whether the required service names one of the user's
// skills, in either direction ("web design" asks for a "design" skill, and a
// "web design" skill satisfies a "design" ask).
func skillMatches(required string, skills []string) bool {
	required = strings.ToLower(strings.TrimSpace(required))
	if required == "" {
		return false
	}
	for _, skill := range skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		if strings.Contains(required, skill) || strings.Contains(skill, required) {
			return true
		}
	}
	return false
}

// Invalidate drops the cached ranking for a user, if a cache is wired.
func (e *Engine) Invalidate(ctx context.Context, userID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx, userID); err != nil {
		log.Printf("recommend: cache invalidate failed for %s: %v", userID, err)
	}
}
