package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidZoneCaseInsensitive(t *testing.T) {
	zone, ok := ValidZone("bugis")
	require.True(t, ok)
	assert.Equal(t, "Bugis", zone)

	zone, ok = ValidZone("ANG MO KIO")
	require.True(t, ok)
	assert.Equal(t, "Ang Mo Kio", zone)

	_, ok = ValidZone("Atlantis")
	assert.False(t, ok)
}

func TestEveryRegionZoneHasCoordinates(t *testing.T) {
	for key, region := range Regions {
		for _, zone := range region.Zones {
			_, ok := zoneCoords[zone]
			assert.True(t, ok, "zone %q in region %q has no coordinates", zone, key)
		}
	}
}

func TestRegionOfZone(t *testing.T) {
	region, ok := RegionOfZone("Tampines")
	require.True(t, ok)
	assert.Equal(t, "east", region)

	_, ok = RegionOfZone("Atlantis")
	assert.False(t, ok)
}

func TestNearestZone(t *testing.T) {
	// Точка в самом центре Bugis.
	zone, dist := NearestZone(1.3009, 103.8559)
	assert.Equal(t, "Bugis", zone)
	assert.InDelta(t, 0, dist, 1)

	// Точка между Bugis и Orchard, чуть ближе к Orchard.
	zone, _ = NearestZone(1.3047, 103.8330)
	assert.Equal(t, "Orchard", zone)
}

func TestRegionKeysStable(t *testing.T) {
	keys := RegionKeys()
	assert.Equal(t, []string{"central", "east", "north", "northeast", "west"}, keys)
}
