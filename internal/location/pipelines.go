package location

// Pipelines is the per-category assembly table of the aggregator.
type Pipelines struct {
	Places        Pipeline[Place]
	Restaurants   Pipeline[Restaurant]
	HolyPlaces    Pipeline[HolyPlace]
	Services      Pipeline[LocalService]
	Accommodation Pipeline[Accommodation]
}

// NewPipelines wires the provider clients into the category table:
//
//	places         union     OpenTripMap tourist + OpenTripMap cultural
//	restaurants    union     Foursquare + OpenTripMap + Overpass
//	holy places    union     Overpass
//	services       union     OpenTripMap + Overpass
//	accommodation  fallback  Geoapify -> Overpass -> OpenTripMap
func NewPipelines(otm *OpenTripMapClient, fsq *FoursquareClient, osm *OverpassClient, gfy *GeoapifyClient) Pipelines {
	return Pipelines{
		Places: Pipeline[Place]{
			Category: CategoryPlaces,
			Mode:     Union,
			Sources: []Source[Place]{
				{Name: SourceOpenTripMap + "/tourist", Fetch: otm.TouristAttractions},
				{Name: SourceOpenTripMap + "/cultural", Fetch: otm.CulturalSites},
			},
			Placeholders: []string{PlaceholderTouristAttraction, PlaceholderCulturalSite},
		},
		Restaurants: Pipeline[Restaurant]{
			Category: CategoryRestaurants,
			Mode:     Union,
			Sources: []Source[Restaurant]{
				{Name: SourceFoursquare, Fetch: fsq.Restaurants},
				{Name: SourceOpenTripMap, Fetch: otm.Restaurants},
				{Name: SourceOverpass, Fetch: osm.Restaurants},
			},
			Placeholders: []string{PlaceholderRestaurant},
		},
		HolyPlaces: Pipeline[HolyPlace]{
			Category: CategoryHolyPlaces,
			Mode:     Union,
			Sources: []Source[HolyPlace]{
				{Name: SourceOverpass, Fetch: osm.HolyPlaces},
			},
		},
		Services: Pipeline[LocalService]{
			Category: CategoryServices,
			Mode:     Union,
			Sources: []Source[LocalService]{
				{Name: SourceOpenTripMap, Fetch: otm.Services},
				{Name: SourceOverpass, Fetch: osm.Services},
			},
			Placeholders: []string{PlaceholderService},
		},
		Accommodation: Pipeline[Accommodation]{
			Category: CategoryAccommodation,
			Mode:     FallbackChain,
			Sources: []Source[Accommodation]{
				{Name: SourceGeoapify, Fetch: gfy.Accommodation},
				{Name: SourceOverpass, Fetch: osm.Accommodation},
				{Name: SourceOpenTripMap, Fetch: otm.Accommodation},
			},
			Placeholders: []string{PlaceholderHotel, PlaceholderAccommodation},
		},
	}
}
