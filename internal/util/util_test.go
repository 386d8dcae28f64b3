package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	cases := map[int64]string{
		0:                      "0 B",
		512:                    "512 B",
		1024:                   "1.0 KB",
		1536:                   "1.5 KB",
		3 * 1024 * 1024 / 2:    "1.5 MB",
		5 * 1024 * 1024 * 1024: "5.0 GB",
	}
	for size, want := range cases {
		assert.Equal(t, want, FormatBytes(size), "size %d", size)
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		45 * time.Second:                      "45s",
		59*time.Second + 500*time.Millisecond: "1m0s",
		2*time.Minute + 30*time.Second:        "2m30s",
		time.Hour + 30*time.Minute:            "1h30m",
	}
	for d, want := range cases {
		assert.Equal(t, want, FormatDuration(d), "duration %s", d)
	}
}

func TestNewID(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000123)
	id := NewID(PrefixDonation, now)

	assert.Regexp(t, `^don_1700000000123_[0-9a-z]{6}$`, id)
	assert.NotEqual(t, id, NewID(PrefixDonation, now))
}

func TestShortID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "3_abc123", ShortID("don_1700000000123_abc123"))
	assert.Equal(t, "short", ShortID("short"))
}
