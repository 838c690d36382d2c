package listing

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

type propertyRow struct {
	bun.BaseModel `bun:"table:properties"`

	ID        string   `bun:"id,pk"`
	Address   string   `bun:"address"`
	Price     string   `bun:"price"`
	Bedrooms  int      `bun:"bedrooms"`
	Bathrooms float64  `bun:"bathrooms"`
	SquareFt  int      `bun:"sqft"`
	Type      string   `bun:"type"`
	Amenities []string `bun:"amenities,array"`
}

type schoolRow struct {
	bun.BaseModel `bun:"table:schools"`

	ID       string   `bun:"id,pk"`
	Name     string   `bun:"name"`
	Type     string   `bun:"type"`
	Address  string   `bun:"address"`
	Rating   float64  `bun:"rating"`
	Grades   string   `bun:"grades"`
	Students int      `bun:"students"`
	Programs []string `bun:"programs,array"`
}

// PostgresSource is the production listing backend, reading the
// properties and schools tables.
type PostgresSource struct {
	db *bun.DB
}

var (
	_ PropertySource = (*PostgresSource)(nil)
	_ SchoolSource   = (*PostgresSource)(nil)
)

func NewPostgresSource(db *bun.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) SearchProperties(ctx context.Context, criteria PropertyCriteria) ([]Property, error) {
	limit := criteria.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}

	q := s.db.NewSelect().Model((*propertyRow)(nil)).Order("price ASC").Limit(limit)
	if criteria.MinBedrooms > 0 {
		q = q.Where("bedrooms >= ?", criteria.MinBedrooms)
	}

	var rows []propertyRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("select properties: %w", err)
	}

	out := make([]Property, 0, len(rows))
	for _, row := range rows {
		out = append(out, Property{
			ID:        row.ID,
			Address:   row.Address,
			Price:     row.Price,
			Bedrooms:  row.Bedrooms,
			Bathrooms: row.Bathrooms,
			SquareFt:  row.SquareFt,
			Type:      row.Type,
			Amenities: row.Amenities,
		})
	}
	return out, nil
}

func (s *PostgresSource) SearchSchools(ctx context.Context, criteria SchoolCriteria) ([]School, error) {
	limit := criteria.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}

	q := s.db.NewSelect().Model((*schoolRow)(nil)).Order("rating DESC").Limit(limit)
	if criteria.Grades != "" {
		q = q.Where("grades = ?", criteria.Grades)
	}
	if criteria.MinRating > 0 {
		q = q.Where("rating >= ?", criteria.MinRating)
	}

	var rows []schoolRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("select schools: %w", err)
	}

	out := make([]School, 0, len(rows))
	for _, row := range rows {
		out = append(out, School{
			ID:       row.ID,
			Name:     row.Name,
			Type:     row.Type,
			Address:  row.Address,
			Rating:   row.Rating,
			Grades:   row.Grades,
			Students: row.Students,
			Programs: row.Programs,
		})
	}
	return out, nil
}
