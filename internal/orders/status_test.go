package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusNew, StatusInProgress, true},
		{StatusNew, StatusCompleted, true},
		{StatusInProgress, StatusReady, true},
		{StatusReady, StatusCompleted, true},
		{StatusReady, StatusInProgress, false},
		{StatusCompleted, StatusNew, false},
		{StatusNew, StatusNew, false},
		{"bogus", StatusCompleted, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("is_ready")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st)

	_, err = ParseStatus("shipped")
	assert.Error(t, err)
}
