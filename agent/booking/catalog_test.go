package booking

import (
	"context"
	"errors"
	"testing"
	"time"
)

type staticSource struct {
	restaurants []Restaurant
	err         error
	calls       int
}

func (s *staticSource) FetchRestaurants(context.Context) ([]Restaurant, error) {
	s.calls++
	return s.restaurants, s.err
}

func testRestaurants() []Restaurant {
	return []Restaurant{
		{ID: "r-1", Name: "Ocean Grill", Cuisine: "Seafood", Location: "Harbor", Rating: 4.6, PriceRange: "$$$"},
		{ID: "r-2", Name: "Oceanview Bistro", Cuisine: "French", Location: "Cliffside", Rating: 4.4, PriceRange: "$$$$"},
		{ID: "r-3", Name: "Pasta Palace", Cuisine: "Italian", Location: "Downtown", Rating: 4.2, PriceRange: "$$"},
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	if got := Ratio("Ocean Grill", "ocean grill"); got != 100 {
		t.Fatalf("Ratio() = %v, want 100", got)
	}
	if got := Ratio("Ocean Gril", "Ocean Grill"); got < MatchThreshold {
		t.Fatalf("Ratio(Ocean Gril, Ocean Grill) = %v, want >= %v", got, MatchThreshold)
	}
	if got := Ratio("Pizza Hut", "Ocean Grill"); got >= CandidateThreshold {
		t.Fatalf("Ratio(Pizza Hut, Ocean Grill) = %v, want < %v", got, CandidateThreshold)
	}
}

func TestFindByNameFuzzyTypo(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog(&staticSource{restaurants: testRestaurants()})
	matched, ok := catalog.FindByName(context.Background(), "Ocean Gril", MatchThreshold)
	if !ok {
		t.Fatal("expected a match for 'Ocean Gril'")
	}
	if matched.Name != "Ocean Grill" {
		t.Fatalf("matched %s, want Ocean Grill", matched.Name)
	}
}

func TestFindByNameNoMatch(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog(&staticSource{restaurants: testRestaurants()})
	if _, ok := catalog.FindByName(context.Background(), "Pizza Hut", MatchThreshold); ok {
		t.Fatal("expected no match for 'Pizza Hut'")
	}
}

func TestFindSimilarOrdersByScore(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog(&staticSource{restaurants: testRestaurants()})
	matches := catalog.FindSimilar(context.Background(), "Ocean Grill", 3, CandidateThreshold)
	if len(matches) == 0 {
		t.Fatal("expected similar matches")
	}
	if matches[0].Restaurant.Name != "Ocean Grill" {
		t.Fatalf("best match = %s, want Ocean Grill", matches[0].Restaurant.Name)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Fatalf("matches not sorted: %+v", matches)
		}
	}
}

func TestCatalogCachesWithinTTL(t *testing.T) {
	t.Parallel()

	source := &staticSource{restaurants: testRestaurants()}
	catalog := NewCatalog(source)
	clock := time.Now()
	catalog.now = func() time.Time { return clock }
	ctx := context.Background()

	catalog.All(ctx)
	catalog.All(ctx)
	if source.calls != 1 {
		t.Fatalf("source calls = %d, want 1", source.calls)
	}

	clock = clock.Add(catalogTTL + time.Minute)
	catalog.All(ctx)
	if source.calls != 2 {
		t.Fatalf("source calls after expiry = %d, want 2", source.calls)
	}
}

func TestCatalogFetchFailureYieldsEmpty(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog(&staticSource{err: errors.New("api down")})
	if got := catalog.All(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}

func TestSearchFilters(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog(&staticSource{restaurants: testRestaurants()})
	ctx := context.Background()

	got := catalog.Search(ctx, SearchFilter{Cuisine: "seafood"})
	if len(got) != 1 || got[0].Name != "Ocean Grill" {
		t.Fatalf("cuisine filter: %+v", got)
	}

	got = catalog.Search(ctx, SearchFilter{MinRating: 4.5})
	if len(got) != 1 || got[0].Name != "Ocean Grill" {
		t.Fatalf("rating filter: %+v", got)
	}

	got = catalog.Search(ctx, SearchFilter{PriceRange: "$$"})
	if len(got) != 1 || got[0].Name != "Pasta Palace" {
		t.Fatalf("price filter: %+v", got)
	}
}
