package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestPointsForPlace(t *testing.T) {
	tests := []struct {
		place  int
		points int
		ok     bool
	}{
		{place: 1, points: 100, ok: true},
		{place: 2, points: 90, ok: true},
		{place: 5, points: 60, ok: true},
		{place: 8, points: 30, ok: true},
		{place: 9, points: 0, ok: true},
		{place: 150, points: 0, ok: true},
		{place: 0, points: 0, ok: false},
		{place: -3, points: 0, ok: false},
	}
	for _, tt := range tests {
		points, ok := PointsForPlace(tt.place)
		assert.Equal(t, tt.points, points, "place %d", tt.place)
		assert.Equal(t, tt.ok, ok, "place %d", tt.place)
	}
}

func TestPointsForPlace_NonIncreasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(1, 50).Draw(t, "a")
		b := rapid.IntRange(a, 60).Draw(t, "b")
		pa, _ := PointsForPlace(a)
		pb, _ := PointsForPlace(b)
		if pb > pa {
			t.Fatalf("place %d earns %d, better place %d earns %d", b, pb, a, pa)
		}
	})
}

func TestTournament_RegistrationOpenAt(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	deadline := start.Add(-72 * time.Hour)
	before := deadline.Add(-time.Hour)

	open := &Tournament{IsRegistrationOpen: true, StartDate: start}
	assert.True(t, open.RegistrationOpenAt(before))
	assert.False(t, open.RegistrationOpenAt(start))

	closed := &Tournament{IsRegistrationOpen: false, StartDate: start}
	assert.False(t, closed.RegistrationOpenAt(before))

	withDeadline := &Tournament{IsRegistrationOpen: true, StartDate: start, RegistrationDeadline: &deadline}
	assert.True(t, withDeadline.RegistrationOpenAt(before))
	assert.False(t, withDeadline.RegistrationOpenAt(deadline.Add(time.Minute)))

	var missing *Tournament
	assert.False(t, missing.RegistrationOpenAt(before))
}

func TestTournament_IsHostRegion(t *testing.T) {
	host := 3
	tour := &Tournament{OrganizingRegionID: &host}
	assert.True(t, tour.IsHostRegion(3))
	assert.False(t, tour.IsHostRegion(4))
	assert.False(t, (&Tournament{}).IsHostRegion(3))
}

func TestActor(t *testing.T) {
	region := 5
	rep := Actor{UserID: 1, Role: RoleRegionalRepresentative, RegionID: &region}
	assert.True(t, rep.InRegion(5))
	assert.False(t, rep.InRegion(6))
	assert.False(t, rep.Role.IsReviewer())
	assert.True(t, RoleAdmin.IsReviewer())
	assert.True(t, RoleEditor.IsReviewer())
	assert.False(t, Actor{Role: RoleAdmin}.InRegion(5))
}
