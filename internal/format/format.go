// Package format renders runtime figures for human-facing output.
package format

import (
	"fmt"
	"time"
)

// Bytes renders n using binary units (1.5 MiB).
func Bytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Uptime renders d as "3d 04:05:06", dropping the day part when zero.
func Uptime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Truncate(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	s := (d - m*time.Minute) / time.Second
	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Percent renders a CPU share with one decimal.
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// Until renders the time left until t, or "now" once it has passed.
func Until(t, now time.Time) string {
	left := t.Sub(now)
	if left <= 0 {
		return "now"
	}
	return left.Round(time.Second).String()
}
