package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input   string
		want    Color
		wantErr bool
	}{
		{input: "red", want: Red},
		{input: "blue", want: Blue},
		{input: "green", want: Green},
		{input: "yellow", want: Yellow},
		{input: "black", wantErr: true},
		{input: "", wantErr: true},
		{input: "purple", wantErr: true},
		{input: "Red", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueDrawCount(t *testing.T) {
	assert.Equal(t, 2, DrawTwo.DrawCount())
	assert.Equal(t, 4, WildDrawFour.DrawCount())
	assert.Equal(t, 0, Wild.DrawCount())
	assert.Equal(t, 0, Skip.DrawCount())
	assert.True(t, DrawTwo.IsDraw())
	assert.False(t, Reverse.IsDraw())
}

func TestWithColorOnlyRecolorsWilds(t *testing.T) {
	wild := NewCard(Black, Wild, 1)
	red := wild.WithColor(Red)
	assert.Equal(t, Red, red.Color)
	assert.Equal(t, wild.ID, red.ID)
	assert.Equal(t, Black, red.Reset().Color)

	seven := NewCard(Blue, Seven, 2)
	assert.Equal(t, seven, seven.WithColor(Red))
	assert.Equal(t, seven, seven.Reset())
}
