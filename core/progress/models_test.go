package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name             string
		total, completed int
		want             float64
	}{
		{name: "no content", total: 0, completed: 0, want: 0},
		{name: "none completed", total: 4, completed: 0, want: 0},
		{name: "half", total: 4, completed: 2, want: 50},
		{name: "all", total: 3, completed: 3, want: 100},
		{name: "clamped", total: 2, completed: 5, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.total, tt.completed))
		})
	}

	assert.InDelta(t, 33.333, Percentage(3, 1), 0.001)
}

func TestSubjectPercentage(t *testing.T) {
	assert.Equal(t, float64(0), subjectPercentage(0, 0))
	assert.Equal(t, float64(25), subjectPercentage(4, 100))
	assert.Equal(t, 44.44, subjectPercentage(3, 133.333))
}
