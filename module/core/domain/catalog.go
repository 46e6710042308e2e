package domain

import (
	"fmt"
	"math"
)

// ValidateCatalog reports every malformed region at once. An empty catalog is
// valid: there is simply nothing to watch.
func ValidateCatalog(regions []Region) error {
	var problems []string
	seen := make(map[RegionID]struct{}, len(regions))

	for i, r := range regions {
		if r.ID == NoRegion {
			problems = append(problems, fmt.Sprintf("region #%d: id is required", i))
		} else if _, dup := seen[r.ID]; dup {
			problems = append(problems, fmt.Sprintf("region %q: duplicate id", r.ID))
		}
		seen[r.ID] = struct{}{}

		if len(r.Boxes) == 0 {
			problems = append(problems, fmt.Sprintf("region %q: no boxes", r.ID))
		}
		for j, b := range r.Boxes {
			if !b.finite() {
				problems = append(problems, fmt.Sprintf("region %q box #%d: bounds must be finite numbers", r.ID, j))
				continue
			}
			if b.MinLat > b.MaxLat {
				problems = append(problems, fmt.Sprintf("region %q box #%d: min_lat %v > max_lat %v", r.ID, j, b.MinLat, b.MaxLat))
			}
			if b.MinLon > b.MaxLon {
				problems = append(problems, fmt.Sprintf("region %q box #%d: min_lon %v > max_lon %v", r.ID, j, b.MinLon, b.MaxLon))
			}
		}
	}

	if len(problems) > 0 {
		return &CatalogValidationError{Problems: problems}
	}
	return nil
}

func (b BoundingBox) finite() bool {
	for _, v := range [...]float64{b.MinLat, b.MaxLat, b.MinLon, b.MaxLon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
