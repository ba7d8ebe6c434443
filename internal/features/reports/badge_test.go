package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadgeForBoundaries(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, BadgeNew},
		{2, BadgeNew},
		{3, BadgeRegular},
		{10, BadgeRegular},
		{11, BadgeTrusted},
		{50, BadgeTrusted},
		{51, BadgeVeteran},
		{500, BadgeVeteran},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BadgeFor(tt.count), "count=%d", tt.count)
	}
}
