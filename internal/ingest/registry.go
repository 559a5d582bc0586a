// Package ingest drives batch ingestion runs: it resolves the locations
// to poll, fans work out to a bounded pool, and aggregates a per-run
// summary.
package ingest

import (
	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
)

// Registry supplies the locations a run polls. Pure reference data.
type Registry struct {
	locations []airquality.Location
	byCode    map[string]airquality.Location
}

// NewRegistry creates a registry over the given locations. With no
// arguments it holds the default NSW coverage list.
func NewRegistry(locations ...airquality.Location) *Registry {
	if len(locations) == 0 {
		locations = DefaultLocations()
	}

	byCode := make(map[string]airquality.Location, len(locations))
	for _, loc := range locations {
		byCode[loc.Postcode] = loc
	}

	return &Registry{locations: locations, byCode: byCode}
}

// Locations returns the full polling list.
func (r *Registry) Locations() []airquality.Location {
	out := make([]airquality.Location, len(r.locations))
	copy(out, r.locations)
	return out
}

// Resolve maps explicit postcode identifiers onto locations. Codes the
// registry knows are enriched with name and coordinates; unknown codes
// are passed through bare so an on-demand run can still attempt them.
func (r *Registry) Resolve(codes []string) []airquality.Location {
	out := make([]airquality.Location, 0, len(codes))
	for _, code := range codes {
		if loc, ok := r.byCode[code]; ok {
			out = append(out, loc)
			continue
		}
		out = append(out, airquality.Location{Postcode: code})
	}
	return out
}

// DefaultLocations returns the NSW postcodes polled by scheduled runs:
// the Sydney metropolitan area plus the major regional centres.
func DefaultLocations() []airquality.Location {
	return []airquality.Location{
		{Postcode: "2000", Name: "Sydney CBD", Lat: -33.8688, Lon: 151.2093},
		{Postcode: "2010", Name: "Surry Hills", Lat: -33.8845, Lon: 151.2119},
		{Postcode: "2020", Name: "Mascot", Lat: -33.9266, Lon: 151.1947},
		{Postcode: "2030", Name: "Bondi", Lat: -33.8915, Lon: 151.2767},
		{Postcode: "2060", Name: "North Sydney", Lat: -33.8389, Lon: 151.2070},
		{Postcode: "2070", Name: "Chatswood", Lat: -33.7967, Lon: 151.1832},
		{Postcode: "2100", Name: "Manly", Lat: -33.7969, Lon: 151.2855},
		{Postcode: "2120", Name: "Parramatta", Lat: -33.8150, Lon: 151.0011},
		{Postcode: "2140", Name: "Bankstown", Lat: -33.9181, Lon: 151.0352},
		{Postcode: "2150", Name: "Castle Hill", Lat: -33.7309, Lon: 151.0040},
		{Postcode: "2160", Name: "Liverpool", Lat: -33.9203, Lon: 150.9238},
		{Postcode: "2230", Name: "Sutherland", Lat: -34.0310, Lon: 151.0576},
		{Postcode: "2250", Name: "Gosford", Lat: -33.4269, Lon: 151.3428},
		{Postcode: "2300", Name: "Newcastle", Lat: -32.9283, Lon: 151.7817},
		{Postcode: "2320", Name: "Maitland", Lat: -32.7335, Lon: 151.5570},
		{Postcode: "2330", Name: "Singleton", Lat: -32.5670, Lon: 151.1678},
		{Postcode: "2340", Name: "Tamworth", Lat: -31.0927, Lon: 150.9320},
		{Postcode: "2450", Name: "Coffs Harbour", Lat: -30.2963, Lon: 153.1135},
		{Postcode: "2500", Name: "Wollongong", Lat: -34.4278, Lon: 150.8931},
		{Postcode: "2560", Name: "Campbelltown", Lat: -34.0650, Lon: 150.8142},
		{Postcode: "2580", Name: "Goulburn", Lat: -34.7515, Lon: 149.7209},
		{Postcode: "2650", Name: "Wagga Wagga", Lat: -35.1082, Lon: 147.3598},
		{Postcode: "2750", Name: "Penrith", Lat: -33.7510, Lon: 150.6940},
		{Postcode: "2780", Name: "Katoomba", Lat: -33.7148, Lon: 150.3119},
		{Postcode: "2790", Name: "Bathurst", Lat: -33.4194, Lon: 149.5775},
		{Postcode: "2800", Name: "Orange", Lat: -33.2839, Lon: 149.1011},
		{Postcode: "2830", Name: "Dubbo", Lat: -32.2569, Lon: 148.6011},
		{Postcode: "2880", Name: "Broken Hill", Lat: -31.9530, Lon: 141.4535},
	}
}
