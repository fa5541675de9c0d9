package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, ParseIntDefault("", 5))
	assert.Equal(t, 5, ParseIntDefault("abc", 5))
	assert.Equal(t, 12, ParseIntDefault("12", 5))
	assert.Equal(t, -1, ParseIntDefault("-1", 5))
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		page, size         int
		offset, limit, pg  int
	}{
		{name: "defaults", page: 0, size: 0, offset: 0, limit: 10, pg: 1},
		{name: "third page", page: 3, size: 20, offset: 40, limit: 20, pg: 3},
		{name: "clamped size", page: 2, size: 500, offset: 100, limit: 100, pg: 2},
		{name: "negative", page: -4, size: -1, offset: 0, limit: 10, pg: 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			offset, limit, pg := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.limit, limit)
			assert.Equal(t, tt.pg, pg)
		})
	}
}
