package cwsdk

// FeatureKey is one independently toggle-able sync dimension within a pair.
type FeatureKey string

const (
	FeatureWatchlist FeatureKey = "watchlist"
	FeatureRatings   FeatureKey = "ratings"
	FeatureHistory   FeatureKey = "history"
	FeaturePlaylists FeatureKey = "playlists"
)

// FeatureKeys lists every known feature in display order.
func FeatureKeys() []FeatureKey {
	return []FeatureKey{FeatureWatchlist, FeatureRatings, FeatureHistory, FeaturePlaylists}
}

// FeatureToggles is the per-feature enable/add/remove configuration.
type FeatureToggles struct {
	Enable bool `json:"enable"`
	Add    bool `json:"add"`
	Remove bool `json:"remove"`
}

// Pair is a configured sync link between two providers.
type Pair struct {
	ID       string                        `json:"id"`
	Source   string                        `json:"source"`
	Target   string                        `json:"target"`
	Mode     string                        `json:"mode"` // one-way, two-way
	Enabled  bool                          `json:"enabled"`
	Features map[FeatureKey]FeatureToggles `json:"features"`
}

// ReorderRequest carries the full pair id order after a local reorder.
type ReorderRequest struct {
	Order []string `json:"order" binding:"required"`
}
