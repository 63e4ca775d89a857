package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPageWindow(t *testing.T) {
	tests := []struct {
		name       string
		offset     int
		limit      int
		wantOffset int
		wantLimit  int
	}{
		{"defaults pass through", 0, 50, 0, 50},
		{"mid page", 100, 25, 100, 25},
		{"negative offset resets", -10, 50, 0, 50},
		{"zero limit falls back", 0, 0, 0, 50},
		{"negative limit falls back", 20, -5, 20, 50},
		{"oversized limit falls back", 0, 1000, 0, 50},
		{"max limit allowed", 0, 200, 0, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := clampPageWindow(tt.offset, tt.limit)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}
