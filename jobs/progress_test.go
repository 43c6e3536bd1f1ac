package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateProgress(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		processed int
		want      float64
	}{
		{"quarter done", 100, 25, 25},
		{"complete", 100, 100, 100},
		{"zero total", 0, 10, 0},
		{"negative total", -5, 10, 0},
		{"overshoot clamps to 100", 100, 150, 100},
		{"negative processed clamps to 0", 100, -3, 0},
		{"nothing processed", 100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateProgress(tt.total, tt.processed), 0.0001)
		})
	}
}
