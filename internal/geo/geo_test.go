package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZeroForIdenticalPoints(t *testing.T) {
	assert.Zero(t, Distance(1.3009, 103.8559, 1.3009, 103.8559))
}

func TestDistanceSymmetric(t *testing.T) {
	d1 := Distance(1.3009, 103.8559, 1.3048, 103.8318)
	d2 := Distance(1.3048, 103.8318, 1.3009, 103.8559)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceKnownPairs(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64 // метры
		tolerance              float64
	}{
		// Один градус широты ≈ 111.19 км на сфере R=6371 км.
		{"one degree of latitude", 0, 0, 1, 0, 111195, 50},
		{"bugis to orchard", 1.3009, 103.8559, 1.3048, 103.8318, 2700, 150},
		{"fifty meters north", 1.3009, 103.8559, 1.30135, 103.8559, 50, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestDistanceMonotonic(t *testing.T) {
	near := Distance(1.3009, 103.8559, 1.3020, 103.8559)
	far := Distance(1.3009, 103.8559, 1.3100, 103.8559)
	assert.Less(t, near, far)
}
