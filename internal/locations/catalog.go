// Package locations carries the venue reference catalog together with the
// elementary geo and search helpers the explore surface needs.
package locations

import "localvibe/internal/domain"

var catalog = []domain.Location{
	{
		ID:          "1",
		Name:        "The Literary Coffee House 'Citadel'",
		Address:     "Str. Academiei, Nr. 15, Bucharest",
		Latitude:    44.4363,
		Longitude:   26.1018,
		ImageURL:    "https://images.unsplash.com/photo-1435224654926-ecc9f7fa028c",
		Description: "A quiet place, ideal for reading and study sessions. Excellent espresso.",
		Rating:      4.8,
		Type:        domain.TypeCafe,
	},
	{
		ID:          "2",
		Name:        "Restaurant 'The Old Inn'",
		Address:     "Piața Unirii, Nr. 4, Cluj-Napoca",
		Latitude:    46.7709,
		Longitude:   23.5891,
		ImageURL:    "https://images.unsplash.com/photo-1441974231531-c6227db76b6e",
		Description: "Traditional Romanian dishes, generous servings, and live folk music.",
		Rating:      4.5,
		Type:        domain.TypeRestaurant,
	},
	{
		ID:          "3",
		Name:        "The Global Wok Bistro",
		Address:     "Bulevardul Eroilor, Nr. 8, Timișoara",
		Latitude:    45.7537,
		Longitude:   21.2257,
		ImageURL:    "https://images.unsplash.com/photo-1505483531331-fc3cf89fd382",
		Description: "Fast and tasty Asian food, a favorite among Polytechnic students.",
		Rating:      4.2,
		Type:        domain.TypeRestaurant,
	},
	{
		ID:          "4",
		Name:        "Café 'New World'",
		Address:     "Str. Lăpușneanu, Nr. 12, Iași",
		Latitude:    47.1601,
		Longitude:   27.5794,
		ImageURL:    "https://images.unsplash.com/photo-1501339847302-ac426a4a7cbb",
		Description: "Specialty coffee and homemade desserts in a belle époque setting.",
		Rating:      4.7,
		Type:        domain.TypeCafe,
	},
	{
		ID:          "5",
		Name:        "Seafood Grill 'The Harbor'",
		Address:     "Bulevardul Tomis, Nr. 20, Constanța",
		Latitude:    44.1733,
		Longitude:   28.6383,
		ImageURL:    "https://images.unsplash.com/photo-1414235077428-338989a2e8c0",
		Description: "Fresh catch from the Black Sea, grilled over open flame.",
		Rating:      4.4,
		Type:        domain.TypeRestaurant,
	},
	{
		ID:          "6",
		Name:        "Tea House 'Jade Garden'",
		Address:     "Str. Republicii, Nr. 33, Brașov",
		Latitude:    45.6427,
		Longitude:   25.5887,
		ImageURL:    "https://images.unsplash.com/photo-1544787219-7f47ccb76574",
		Description: "Over forty loose-leaf teas and a calm inner courtyard.",
		Rating:      4.6,
		Type:        domain.TypeCafe,
	},
	{
		ID:          "7",
		Name:        "Trattoria Piccola",
		Address:     "Str. Doamnei, Nr. 9, Bucharest",
		Latitude:    44.4323,
		Longitude:   26.1004,
		ImageURL:    "https://images.unsplash.com/photo-1551183053-bf91a1d81141",
		Description: "Wood-fired pizza and handmade pasta, Roman family recipes.",
		Rating:      4.3,
		Type:        domain.TypeRestaurant,
	},
	{
		ID:          "8",
		Name:        "Espresso Lab 'Origami'",
		Address:     "Piața Muzeului, Nr. 2, Cluj-Napoca",
		Latitude:    46.7712,
		Longitude:   23.5869,
		ImageURL:    "https://images.unsplash.com/photo-1447933601403-0c6688de566e",
		Description: "Single-origin espresso and pour-over, roasted in house weekly.",
		Rating:      4.9,
		Type:        domain.TypeCafe,
	},
}

// Catalog returns a copy of the reference venue list.
func Catalog() []domain.Location {
	out := make([]domain.Location, len(catalog))
	copy(out, catalog)
	return out
}

// ByID returns the venue with the given id.
func ByID(id string) (domain.Location, bool) {
	for _, loc := range catalog {
		if loc.ID == id {
			return loc, true
		}
	}
	return domain.Location{}, false
}
