package location

import (
	"strings"
)

// Accommodation type labels.
const (
	TypeHotel      = "Hotel"
	TypeResort     = "Resort"
	TypeHostel     = "Hostel"
	TypeGuestHouse = "Guest House"
	TypeApartment  = "Apartment"
	TypeVilla      = "Villa"
	TypeMotel      = "Motel"
	TypeBnB        = "B&B"
	TypeCamping    = "Camping"
)

// Price range buckets, most expensive first.
const (
	PriceLuxury   = "$$$$ (Luxury)"
	PricePremium  = "$$$ (Premium)"
	PriceBudget   = "$ (Budget)"
	PriceMidRange = "$$ (Mid-range)"
	PriceStandard = "$$ (Standard)"
)

type keywordRule struct {
	keywords []string
	label    string
}

// first returns the label of the first rule with a keyword contained in s.
func first(rules []keywordRule, s, fallback string) string {
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(s, k) {
				return r.label
			}
		}
	}
	return fallback
}

var accommodationRules = []keywordRule{
	{[]string{"resort"}, TypeResort},
	{[]string{"hostel"}, TypeHostel},
	{[]string{"guest_house", "guesthouse"}, TypeGuestHouse},
	{[]string{"apartment", "aparthotel"}, TypeApartment},
	{[]string{"villa"}, TypeVilla},
	{[]string{"motel"}, TypeMotel},
	{[]string{"bed_and_breakfast", "bnb"}, TypeBnB},
	{[]string{"camping"}, TypeCamping},
}

// CategorizeAccommodationType maps raw provider tags (OpenTripMap kinds,
// Geoapify categories, OSM tourism values) to an accommodation label.
func CategorizeAccommodationType(raw string) string {
	return first(accommodationRules, strings.ToLower(raw), TypeHotel)
}

var kindAmenities = []keywordRule{
	{[]string{"wifi"}, "WiFi"},
	{[]string{"pool"}, "Swimming Pool"},
	{[]string{"spa"}, "Spa"},
	{[]string{"restaurant"}, "Restaurant"},
	{[]string{"fitness"}, "Fitness Center"},
	{[]string{"parking"}, "Parking"},
	{[]string{"pet"}, "Pet Friendly"},
	{[]string{"business"}, "Business Center"},
	{[]string{"conference"}, "Conference Rooms"},
	{[]string{"wheelchair"}, "Wheelchair Accessible"},
	{[]string{"air_conditioning"}, "Air Conditioning"},
}

// ExtractAmenities returns every amenity whose keyword occurs in kinds, or the
// default hotel set when none does.
func ExtractAmenities(kinds string) []string {
	lower := strings.ToLower(kinds)
	var out []string
	for _, r := range kindAmenities {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				out = append(out, r.label)
				break
			}
		}
	}
	if len(out) == 0 {
		return []string{"Standard Rooms", "Reception", "Housekeeping"}
	}
	return out
}

// ExtractOSMAmenities reads yes-valued OSM tags.
func ExtractOSMAmenities(tags map[string]string) []string {
	yes := func(keys ...string) bool {
		for _, k := range keys {
			if tags[k] == "yes" {
				return true
			}
		}
		return false
	}

	var out []string
	if yes("internet_access", "wifi") {
		out = append(out, "WiFi")
	}
	if yes("parking") {
		out = append(out, "Parking")
	}
	if yes("swimming_pool") {
		out = append(out, "Pool")
	}
	if yes("restaurant") {
		out = append(out, "Restaurant")
	}
	if yes("breakfast") {
		out = append(out, "Breakfast")
	}
	if yes("wheelchair") {
		out = append(out, "Wheelchair Accessible")
	}
	if yes("air_conditioning") {
		out = append(out, "Air Conditioning")
	}
	if len(out) == 0 {
		return []string{"Standard Rooms"}
	}
	return out
}

// ExtractGeoapifyAmenities reads the boolean-ish flags of a Geoapify feature.
func ExtractGeoapifyAmenities(p geoapifyProperties) []string {
	var out []string
	if truthy(p.Wifi) {
		out = append(out, "WiFi")
	}
	if truthy(p.InternetAccess) {
		out = append(out, "Internet")
	}
	if truthy(p.Parking) {
		out = append(out, "Parking")
	}
	if truthy(p.Wheelchair) {
		out = append(out, "Wheelchair Accessible")
	}
	if truthy(p.AirConditioning) {
		out = append(out, "Air Conditioning")
	}
	if len(out) == 0 {
		return []string{"Standard Rooms", "Reception"}
	}
	return out
}

// truthy mirrors how Geoapify encodes flags: true, "yes", a non-empty object.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "no" && t != "false"
	case float64:
		return t != 0
	default:
		return true
	}
}

// EstimatePriceRange buckets a lodging by keyword and rating. The first
// matching rule wins, so "luxury" outranks a low rating and a 4.6 rating
// outranks a "hostel" keyword.
func EstimatePriceRange(raw string, rating *float64) string {
	lower := strings.ToLower(raw)
	r := 0.0
	if rating != nil {
		r = *rating
	}

	switch {
	case strings.Contains(lower, "luxury") || r >= 4.5:
		return PriceLuxury
	case strings.Contains(lower, "resort") || r >= 4.0:
		return PricePremium
	case strings.Contains(lower, "budget") || strings.Contains(lower, "hostel"):
		return PriceBudget
	case r >= 3.5:
		return PriceMidRange
	default:
		return PriceStandard
	}
}

// Icon names used by the UI.
const (
	IconBusiness   = "business"
	IconMedical    = "medical"
	IconCard       = "card"
	IconBed        = "bed"
	IconStorefront = "storefront"
	IconTrain      = "train"
	IconCar        = "car"
	IconMail       = "mail"
	IconFlower     = "flower"
)

var serviceIconRules = []keywordRule{
	{[]string{"hospital", "medical", "clinic"}, IconMedical},
	{[]string{"bank", "atm"}, IconCard},
	{[]string{"hotel", "accommodation"}, IconBed},
	{[]string{"supermarket", "convenience", "shop", "store"}, IconStorefront},
	{[]string{"transport", "station"}, IconTrain},
	{[]string{"fuel", "gas"}, IconCar},
	{[]string{"pharmacy"}, IconMedical},
	{[]string{"post"}, IconMail},
}

// ServiceIcon maps a raw service type to an icon name.
func ServiceIcon(rawType string) string {
	return first(serviceIconRules, strings.ToLower(rawType), IconBusiness)
}

var serviceColorRules = []keywordRule{
	{[]string{"hospital", "medical"}, "#e74c3c"},
	{[]string{"bank"}, "#f39c12"},
	{[]string{"hotel"}, "#9b59b6"},
	{[]string{"shop"}, "#2ecc71"},
}

// ServiceColor maps a raw service type to an accent color.
func ServiceColor(rawType string) string {
	return first(serviceColorRules, strings.ToLower(rawType), "#45B7D1")
}

var serviceNames = map[string]string{
	"bank":           "Bank",
	"pharmacy":       "Pharmacy",
	"hospital":       "Hospital",
	"clinic":         "Medical Clinic",
	"post_office":    "Post Office",
	"police":         "Police Station",
	"library":        "Library",
	"fuel":           "Gas Station",
	"supermarket":    "Supermarket",
	"convenience":    "Convenience Store",
	"fitness_centre": "Fitness Center",
}

// ServiceDisplayName returns a readable name for an OSM service tag value.
func ServiceDisplayName(tag string) string {
	if n, ok := serviceNames[tag]; ok {
		return n
	}
	return tag
}

// ServiceLabel formats a comma-separated kinds string into at most two
// title-cased labels ("banks,shops,sport" -> "Banks, Shops").
func ServiceLabel(rawType string) string {
	if strings.TrimSpace(rawType) == "" {
		return "Service"
	}
	parts := strings.Split(rawType, ",")
	labels := make([]string, 0, 2)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		labels = append(labels, titleCase(strings.ReplaceAll(p, "_", " ")))
		if len(labels) == 2 {
			break
		}
	}
	return strings.Join(labels, ", ")
}

var religionIconRules = []keywordRule{
	{[]string{"christian", "catholic"}, "cross"},
	{[]string{"islam", "muslim"}, "moon"},
	{[]string{"hindu"}, "flame"},
	{[]string{"buddhist"}, "leaf"},
	{[]string{"jewish"}, "star"},
}

// ReligionIcon maps an OSM religion value to an icon name.
func ReligionIcon(religion string) string {
	return first(religionIconRules, strings.ToLower(religion), IconFlower)
}

var placeIconRules = []keywordRule{
	{[]string{"museum"}, "library"},
	{[]string{"park"}, "leaf"},
	{[]string{"monument"}, "trophy"},
	{[]string{"temple", "church"}, "flower"},
	{[]string{"beach"}, "water"},
	{[]string{"market"}, "storefront"},
}

// PlaceIcon maps OpenTripMap kinds to an icon name.
func PlaceIcon(kinds string) string {
	return first(placeIconRules, strings.ToLower(kinds), "location")
}

// titleCase upper-cases the first letter of every space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
