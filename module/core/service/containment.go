package service

import "github.com/nandanugg/region-notifier/module/core/domain"

// IsInside reports whether the fix falls inside any of the region's boxes.
func IsInside(fix domain.Fix, region domain.Region) bool {
	for _, b := range region.Boxes {
		if b.Contains(fix.Latitude, fix.Longitude) {
			return true
		}
	}
	return false
}
