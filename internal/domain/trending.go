package domain

// TrendingEntry is one sampled candidate with a short preview of catalog
// results. A failed or empty fetch leaves Books empty; the entry itself is
// always present in the panel.
type TrendingEntry struct {
	Name  string `json:"name"`
	Books []Book `json:"books"`
}

// TrendingPanel is the per-request randomized sampling of catalog previews.
// It is ephemeral and intentionally not tied to real usage trends.
type TrendingPanel struct {
	Authors []TrendingEntry `json:"authors"`
	Genres  []TrendingEntry `json:"genres"`
	Topics  []TrendingEntry `json:"topics"`
}
