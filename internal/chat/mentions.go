package chat

import (
	"sort"
	"strings"

	"localvibe/internal/domain"
)

// DetectMentions scans generated text for exact, case-sensitive occurrences
// of each known venue's display name. It returns the matched ids ordered by
// first occurrence in the text, without duplicates.
func DetectMentions(text string, locations []domain.Location) []string {
	type hit struct {
		index int
		id    string
	}
	var hits []hit
	seen := make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		if loc.Name == "" {
			continue
		}
		if _, dup := seen[loc.ID]; dup {
			continue
		}
		if idx := strings.Index(text, loc.Name); idx >= 0 {
			seen[loc.ID] = struct{}{}
			hits = append(hits, hit{index: idx, id: loc.ID})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].index < hits[j].index })

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.id)
	}
	return ids
}
