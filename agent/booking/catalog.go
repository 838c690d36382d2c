package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog/log"
)

const (
	catalogTTL = time.Hour

	// Fuzzy-match thresholds on the 0-100 similarity scale.
	MatchThreshold     = 75.0
	CandidateThreshold = 60.0
	SelectionThreshold = 70.0
)

// Source fetches the full restaurant list from wherever it lives.
type Source interface {
	FetchRestaurants(ctx context.Context) ([]Restaurant, error)
}

// Match pairs a restaurant with its similarity score.
type Match struct {
	Restaurant Restaurant
	Score      float64
}

// Catalog caches the restaurant list with a 1h TTL and refetches
// inline when the cache has expired.
type Catalog struct {
	source Source

	mu        sync.Mutex
	cached    []Restaurant
	fetchedAt time.Time
	now       func() time.Time
}

func NewCatalog(source Source) *Catalog {
	return &Catalog{source: source, now: time.Now}
}

// Prefetch warms the cache. Failures are logged, not fatal: the first
// lookup will retry.
func (c *Catalog) Prefetch(ctx context.Context) int {
	restaurants, err := c.refetch(ctx)
	if err != nil {
		log.Error().Err(err).Msg("restaurant prefetch failed")
		return 0
	}
	log.Info().Int("count", len(restaurants)).Msg("restaurants prefetched")
	return len(restaurants)
}

// All returns the cached list, refetching when stale. A failed refetch
// yields an empty list rather than an error.
func (c *Catalog) All(ctx context.Context) []Restaurant {
	c.mu.Lock()
	fresh := len(c.cached) > 0 && c.now().Sub(c.fetchedAt) < catalogTTL
	cached := c.cached
	c.mu.Unlock()

	if fresh {
		return cached
	}

	restaurants, err := c.refetch(ctx)
	if err != nil {
		log.Error().Err(err).Msg("restaurant refetch failed")
		return nil
	}
	return restaurants
}

func (c *Catalog) refetch(ctx context.Context) ([]Restaurant, error) {
	restaurants, err := c.source.FetchRestaurants(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = restaurants
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return restaurants, nil
}

// ByID returns the restaurant with the given id.
func (c *Catalog) ByID(ctx context.Context, id string) (Restaurant, bool) {
	for _, r := range c.All(ctx) {
		if r.ID == id {
			return r, true
		}
	}
	return Restaurant{}, false
}

// FindByName fuzzy-matches a name against the catalog and returns the
// best match at or above threshold.
func (c *Catalog) FindByName(ctx context.Context, name string, threshold float64) (Restaurant, bool) {
	var (
		best      Restaurant
		bestScore float64
		found     bool
	)
	for _, r := range c.All(ctx) {
		score := Ratio(name, r.Name)
		if score >= threshold && score > bestScore {
			best = r
			bestScore = score
			found = true
		}
	}
	if found {
		log.Debug().Str("query", name).Str("matched", best.Name).Float64("score", bestScore).Msg("fuzzy match")
	}
	return best, found
}

// FindSimilar returns up to limit matches scoring at or above
// threshold, best first. Used when no single match is good enough.
func (c *Catalog) FindSimilar(ctx context.Context, name string, limit int, threshold float64) []Match {
	var matches []Match
	for _, r := range c.All(ctx) {
		if score := Ratio(name, r.Name); score >= threshold {
			matches = append(matches, Match{Restaurant: r, Score: score})
		}
	}

	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Score > matches[j-1].Score; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Search filters the catalog. All filters are conjunctive.
func (c *Catalog) Search(ctx context.Context, filter SearchFilter) []Restaurant {
	var out []Restaurant
	for _, r := range c.All(ctx) {
		if filter.Cuisine != "" && !strings.Contains(strings.ToLower(r.Cuisine), strings.ToLower(filter.Cuisine)) {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(r.Location), strings.ToLower(filter.Location)) {
			continue
		}
		if filter.MinRating > 0 && r.Rating < filter.MinRating {
			continue
		}
		if filter.PriceRange != "" && r.PriceRange != filter.PriceRange {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Ratio is a 0-100 similarity score between two strings, case
// insensitive, based on edit distance over the longer length.
func Ratio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}
