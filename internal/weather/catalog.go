package weather

import "strings"

// Catalog is the fixed list of cities offered for manual selection.
type Catalog struct {
	locations []Location
}

// DefaultCatalog returns the built-in city list.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Location{
		NewLocation("Paris, France", Coordinate{Latitude: 48.856788, Longitude: 2.351077}),
		NewLocation("Sydney, Australia", Coordinate{Latitude: -33.872710, Longitude: 151.205694}),
		NewLocation("Washington, DC", Coordinate{Latitude: 38.895438, Longitude: -77.031281}),
	})
}

// NewCatalog creates a Catalog preserving the given order.
func NewCatalog(locations []Location) *Catalog {
	return &Catalog{locations: append([]Location(nil), locations...)}
}

// All returns the catalog entries in display order.
func (c *Catalog) All() []Location {
	return append([]Location(nil), c.locations...)
}

// ByID looks an entry up by its identifier.
func (c *Catalog) ByID(id string) (Location, bool) {
	for _, l := range c.locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}

// ByName looks an entry up by name, ignoring case. A bare city name such as
// "paris" matches "Paris, France".
func (c *Catalog) ByName(name string) (Location, bool) {
	name = strings.TrimSpace(name)
	for _, l := range c.locations {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	for _, l := range c.locations {
		city, _, _ := strings.Cut(l.Name, ",")
		if strings.EqualFold(strings.TrimSpace(city), name) {
			return l, true
		}
	}
	return Location{}, false
}
