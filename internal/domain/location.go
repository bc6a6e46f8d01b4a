package domain

// LocationType distinguishes the two venue kinds in the catalog.
type LocationType string

const (
	TypeCafe       LocationType = "cafe"
	TypeRestaurant LocationType = "restaurant"
)

// Location is a venue from the reference catalog. Name doubles as the
// display name used for mention detection in generated text.
type Location struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Address     string       `json:"address"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	ImageURL    string       `json:"imageUrl"`
	Description string       `json:"description"`
	Rating      float64      `json:"rating"`
	Type        LocationType `json:"type"`
}
