package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/federation-registry/models"
)

func TestCapacityFor(t *testing.T) {
	tests := []struct {
		name       string
		regionID   int
		tournament *models.Tournament
		want       int
	}{
		{"host region", hostRegion, &models.Tournament{OrganizingRegionID: intPtr(hostRegion)}, HostRegionCapacity},
		{"guest region", guestRegion, &models.Tournament{OrganizingRegionID: intPtr(hostRegion)}, GuestRegionCapacity},
		{"no organizer", hostRegion, &models.Tournament{}, GuestRegionCapacity},
		{"no tournament", hostRegion, nil, GuestRegionCapacity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CapacityFor(tt.regionID, tt.tournament))
		})
	}
}
