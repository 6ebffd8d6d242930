package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	cases := map[float64]string{
		0:                 "0.0B",
		512:               "512.0B",
		2048:              "2.0KB",
		5 * 1024 * 1024:   "5.0MB",
		3 * 1 << 30:       "3.0GB",
		2 * (1 << 40):     "2.0TB",
		1.5 * 1024 * 1024: "1.5MB",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatBytes(in))
	}
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "2.0KB/s", formatRate(2048))
}
