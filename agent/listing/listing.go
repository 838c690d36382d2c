// Package listing holds the properties and education search domains:
// listing models and the sources that serve them.
package listing

import "context"

type Property struct {
	ID        string   `json:"id"`
	Address   string   `json:"address"`
	Price     string   `json:"price"`
	Bedrooms  int      `json:"bedrooms"`
	Bathrooms float64  `json:"bathrooms"`
	SquareFt  int      `json:"sqft"`
	Type      string   `json:"type"`
	Amenities []string `json:"amenities,omitempty"`
}

type School struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Address  string   `json:"address"`
	Rating   float64  `json:"rating"`
	Grades   string   `json:"grades"`
	Students int      `json:"students"`
	Programs []string `json:"programs,omitempty"`
}

// PropertyCriteria narrows a property search; zero values mean no
// filter. MaxResults defaults to 3.
type PropertyCriteria struct {
	MinBedrooms int
	MaxResults  int
}

// SchoolCriteria narrows a school search.
type SchoolCriteria struct {
	Grades     string
	MinRating  float64
	MaxResults int
}

// PropertySource serves property listings.
type PropertySource interface {
	SearchProperties(ctx context.Context, criteria PropertyCriteria) ([]Property, error)
}

// SchoolSource serves school listings.
type SchoolSource interface {
	SearchSchools(ctx context.Context, criteria SchoolCriteria) ([]School, error)
}

const defaultMaxResults = 3
