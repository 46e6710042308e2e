package domain

type RegionID string

// NoRegion is the current-region label when a fix matches no region.
const NoRegion RegionID = ""

// BoundingBox is inclusive on all four edges.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lon >= b.MinLon && lon <= b.MaxLon
}

type NotificationContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Region struct {
	ID    RegionID              `json:"id"`
	Boxes []BoundingBox         `json:"boxes"`
	Pool  []NotificationContent `json:"notification_pool"`
}

type RegionState struct {
	Inside bool `json:"inside"`
}
