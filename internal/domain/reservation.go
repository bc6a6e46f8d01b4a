package domain

// Reservation records one reservation hand-off. Entries are append-only;
// duplicates for the same venue are allowed and distinguished by timestamp
// (epoch milliseconds).
type Reservation struct {
	LocationID   string `json:"locationId"`
	LocationName string `json:"locationName"`
	Address      string `json:"address,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}
