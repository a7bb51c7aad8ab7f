package domain

// RatingCount is the number of movies carrying one classification.
type RatingCount struct {
	Rating Rating `json:"rating"`
	Count  int64  `json:"count"`
}

// StatusCounts groups movies by derived status.
// ComingSoon counts every unreleased movie, including full ones.
type StatusCounts struct {
	Showing    int64 `json:"showing"`
	ComingSoon int64 `json:"comingSoon"`
	Full       int64 `json:"full"`
}

// CatalogStats is the aggregated view of the catalog.
type CatalogStats struct {
	Total    int64         `json:"total"`
	ByRating []RatingCount `json:"byRating"`
	ByStatus StatusCounts  `json:"byStatus"`
}
