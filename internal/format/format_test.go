package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bytes(tt.in))
	}
}

func TestUptime(t *testing.T) {
	assert.Equal(t, "-", Uptime(0))
	assert.Equal(t, "00:00:05", Uptime(5*time.Second+300*time.Millisecond))
	assert.Equal(t, "01:02:03", Uptime(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "2d 00:00:10", Uptime(48*time.Hour+10*time.Second))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "12.5%", Percent(12.5))
	assert.Equal(t, "0.0%", Percent(0))
}

func TestUntil(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "now", Until(now.Add(-time.Second), now))
	assert.Equal(t, "4s", Until(now.Add(4*time.Second), now))
}
