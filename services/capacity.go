package services

import "github.com/Dosada05/federation-registry/models"

const (
	HostRegionCapacity  = 6
	GuestRegionCapacity = 4
)

// CapacityFor returns how many athletes a region may enter in one category.
// The organizing region gets the larger quota.
func CapacityFor(regionID int, tournament *models.Tournament) int {
	if tournament.IsHostRegion(regionID) {
		return HostRegionCapacity
	}
	return GuestRegionCapacity
}

func validateRosterSize(count, limit int) error {
	if count < 1 || count > limit {
		return &CapacityError{Limit: limit, Got: count}
	}
	return nil
}
