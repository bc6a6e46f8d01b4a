package locations

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"localvibe/internal/domain"
)

const earthRadiusKm = 6371

// Distance returns the haversine great-circle distance in kilometers.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases the text, strips diacritics, and drops everything
// that is not a letter, digit, or space, so "Café" matches "cafe".
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		stripped = lowered
	}
	var b strings.Builder
	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Position is an optional user location for distance annotation.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Result is a catalog entry annotated with the distance from the user.
// DistanceKm is negative when no position was supplied.
type Result struct {
	domain.Location
	DistanceKm float64
}

// Search filters the catalog by a diacritic-insensitive substring match on
// name or address and by venue type ("" or "all" keeps both). When a query
// and a position are both present, results are sorted nearest-first;
// otherwise catalog order is preserved.
func Search(query string, typeFilter string, pos *Position) []Result {
	normalizedQuery := Normalize(query)

	var results []Result
	for _, loc := range catalog {
		if typeFilter != "" && typeFilter != "all" && string(loc.Type) != typeFilter {
			continue
		}
		if normalizedQuery != "" &&
			!strings.Contains(Normalize(loc.Name), normalizedQuery) &&
			!strings.Contains(Normalize(loc.Address), normalizedQuery) {
			continue
		}
		r := Result{Location: loc, DistanceKm: -1}
		if pos != nil {
			r.DistanceKm = Distance(pos.Latitude, pos.Longitude, loc.Latitude, loc.Longitude)
		}
		results = append(results, r)
	}

	if normalizedQuery != "" && pos != nil {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].DistanceKm < results[j].DistanceKm
		})
	}
	return results
}

// FormatDistance renders a distance for display: meters under one
// kilometer, one decimal otherwise.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%dm", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1fkm", km)
}
