package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySizeString(t *testing.T) {
	tests := []struct {
		size MemorySize
		want string
	}{
		{0, "0B"},
		{-5, "0B"},
		{512, "512B"},
		{KB, "1K"},
		{1536, "1.50K"},
		{2 * MB, "2M"},
		{3 * GB, "3G"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.size.String())
	}
}

func TestMemorySizeConversions(t *testing.T) {
	size := 2 * GB

	assert.EqualValues(t, 2*1024*1024*1024, size.Bytes())
	assert.InDelta(t, 2*1024*1024, size.KB(), 1e-9)
	assert.InDelta(t, 2048, size.MB(), 1e-9)
	assert.InDelta(t, 2, size.GB(), 1e-9)
}

func TestParseMemorySize(t *testing.T) {
	tests := []struct {
		input string
		want  MemorySize
	}{
		{"1024", 1024},
		{"512B", 512},
		{"9M", 9 * MB},
		{"2G", 2 * GB},
		{"1.5K", 1536},
		{" 4k ", 4 * KB},
	}

	for _, tt := range tests {
		got, err := ParseMemorySize(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}

	t.Run("invalid inputs", func(t *testing.T) {
		for _, input := range []string{"", "abc", "12Q3"} {
			_, err := ParseMemorySize(input)
			assert.Error(t, err, "input %q", input)
		}
	})
}

func TestMustParseMemorySize(t *testing.T) {
	assert.Equal(t, 9*MB, MustParseMemorySize("9M"))
	assert.Panics(t, func() { MustParseMemorySize("bogus") })
}
