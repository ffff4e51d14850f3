package domain

import "time"

// RecommendationSet is the cached output of one recommendation computation.
// Invariant: no entry's ExternalID is present in the user's current library at
// generation time.
type RecommendationSet struct {
	UserID      string    `json:"user_id"`
	Books       []Book    `json:"books"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Signal is a derived preference feature (a frequent tag or author) used to
// drive recommendation queries. Signals of equal count order alphabetically so
// ranking is a total order.
type Signal struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}
