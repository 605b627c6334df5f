package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuildSettings_GetReferralsPerEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured int64
		want       int64
	}{
		{"configured rate", 3, 3},
		{"unset falls back to default", 0, DefaultReferralsPerEntry},
		{"negative falls back to default", -1, DefaultReferralsPerEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			settings := &GuildSettings{ReferralsPerEntry: tt.configured}
			assert.Equal(t, tt.want, settings.GetReferralsPerEntry())
		})
	}
}

func TestGuildSettings_JoinLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		timezone string
		want     string
	}{
		{"unset falls back to UTC", "", "UTC"},
		{"invalid falls back to UTC", "Mars/Olympus", "UTC"},
		{"valid zone resolves", "Europe/London", "Europe/London"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			settings := &GuildSettings{JoinTimezone: tt.timezone}
			assert.Equal(t, tt.want, settings.JoinLocation().String())
		})
	}
}

func TestGuildSettings_JoinCountStale(t *testing.T) {
	t.Parallel()

	// 23:30 UTC on the 24th is already the 25th in Tokyo
	lastJoin := time.Date(2026, 8, 24, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lastJoin *time.Time
		timezone string
		now      time.Time
		want     bool
	}{
		{
			name: "no joins yet",
			now:  time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name:     "same UTC day",
			lastJoin: &lastJoin,
			now:      time.Date(2026, 8, 24, 23, 59, 0, 0, time.UTC),
			want:     false,
		},
		{
			name:     "next UTC day",
			lastJoin: &lastJoin,
			now:      time.Date(2026, 8, 25, 0, 1, 0, 0, time.UTC),
			want:     true,
		},
		{
			name:     "same Tokyo day despite UTC rollover",
			lastJoin: &lastJoin,
			timezone: "Asia/Tokyo",
			now:      time.Date(2026, 8, 25, 0, 1, 0, 0, time.UTC),
			want:     false,
		},
		{
			name:     "Tokyo rollover before UTC rollover",
			lastJoin: timePtr(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)),
			timezone: "Asia/Tokyo",
			now:      time.Date(2026, 8, 24, 16, 0, 0, 0, time.UTC),
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			settings := &GuildSettings{
				LastJoinAt:   tt.lastJoin,
				JoinTimezone: tt.timezone,
			}
			assert.Equal(t, tt.want, settings.JoinCountStale(tt.now))
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
