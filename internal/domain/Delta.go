package domain

// SnapshotDelta is a derived view of a snapshot annotated with the change
// against the nearest qualifying prior snapshots. A nil delta means no prior
// snapshot old enough exists; it is deliberately distinct from zero, which
// would be indistinguishable from "no real change".
type SnapshotDelta struct {
	Snapshot

	FollowersDelta1d *int64 `json:"followers_delta_1d,omitempty"`
	LikesDelta1d     *int64 `json:"likes_delta_1d,omitempty"`
	PostsDelta1d     *int64 `json:"posts_delta_1d,omitempty"`
	VideosDelta1d    *int64 `json:"videos_delta_1d,omitempty"`

	FollowersDelta7d *int64 `json:"followers_delta_7d,omitempty"`
	LikesDelta7d     *int64 `json:"likes_delta_7d,omitempty"`
	PostsDelta7d     *int64 `json:"posts_delta_7d,omitempty"`
	VideosDelta7d    *int64 `json:"videos_delta_7d,omitempty"`
}

// RangeGrowth summarizes follower growth across an explicit, pre-filtered
// history window.
type RangeGrowth struct {
	Growth        int64   `json:"growth"`
	GrowthPercent float64 `json:"growth_percent"`
	BaselineValue int64   `json:"baseline_value"`
}
