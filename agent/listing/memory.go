package listing

import "context"

// MemorySource serves fixture listings for dev and tests.
type MemorySource struct {
	properties []Property
	schools    []School
}

var (
	_ PropertySource = (*MemorySource)(nil)
	_ SchoolSource   = (*MemorySource)(nil)
)

func NewMemorySource() *MemorySource {
	return &MemorySource{
		properties: []Property{
			{
				ID: "prop_1", Address: "123 Main St, San Francisco, CA",
				Price: "$2,500/month", Bedrooms: 2, Bathrooms: 2, SquareFt: 1200,
				Type: "Apartment", Amenities: []string{"Parking", "Gym", "Pool"},
			},
			{
				ID: "prop_2", Address: "456 Oak Ave, San Francisco, CA",
				Price: "$1,800/month", Bedrooms: 1, Bathrooms: 1, SquareFt: 800,
				Type: "Apartment", Amenities: []string{"Parking", "Laundry"},
			},
			{
				ID: "prop_3", Address: "789 Pine St, San Francisco, CA",
				Price: "$3,200/month", Bedrooms: 3, Bathrooms: 2.5, SquareFt: 1600,
				Type: "Townhouse", Amenities: []string{"Parking", "Yard", "Garage"},
			},
		},
		schools: []School{
			{
				ID: "school_1", Name: "Lincoln Elementary School", Type: "Public Elementary",
				Address: "123 School St, San Francisco, CA 94105", Rating: 4.5,
				Grades: "K-5", Students: 450, Programs: []string{"STEM", "Arts", "After School Care"},
			},
			{
				ID: "school_2", Name: "Washington Middle School", Type: "Public Middle School",
				Address: "456 Education Ave, San Francisco, CA 94105", Rating: 4.2,
				Grades: "6-8", Students: 600, Programs: []string{"Sports", "Music", "Advanced Math"},
			},
			{
				ID: "school_3", Name: "Roosevelt High School", Type: "Public High School",
				Address: "789 Learning Blvd, San Francisco, CA 94105", Rating: 4.7,
				Grades: "9-12", Students: 1200, Programs: []string{"AP Courses", "Athletics", "Robotics", "Drama"},
			},
		},
	}
}

func (s *MemorySource) SearchProperties(_ context.Context, criteria PropertyCriteria) ([]Property, error) {
	limit := criteria.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}

	var out []Property
	for _, p := range s.properties {
		if criteria.MinBedrooms > 0 && p.Bedrooms < criteria.MinBedrooms {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemorySource) SearchSchools(_ context.Context, criteria SchoolCriteria) ([]School, error) {
	limit := criteria.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}

	var out []School
	for _, sc := range s.schools {
		if criteria.Grades != "" && sc.Grades != criteria.Grades {
			continue
		}
		if criteria.MinRating > 0 && sc.Rating < criteria.MinRating {
			continue
		}
		out = append(out, sc)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
