package entities

import "time"

// DrawResult records the outcome of a lottery's original draw.
// Exactly one result exists per completed lottery that had participants;
// an empty-pool draw completes the lottery without a result. Reruns
// produce transient results that are announced but never stored.
type DrawResult struct {
	ID                int64           `db:"id"`
	LotteryID         int64           `db:"lottery_id"`
	GuildID           int64           `db:"guild_id"`
	WinnerID          int64           `db:"winner_id"`
	TotalParticipants int             `db:"total_participants"`
	TotalEntries      int64           `db:"total_entries"`
	Entries           map[int64]int64 `db:"entries"` // participant -> entry count
	DrawnAt           time.Time       `db:"drawn_at"`
}

// WinProbability returns the winner's share of the entry pool
func (r *DrawResult) WinProbability() float64 {
	if r.TotalEntries == 0 {
		return 0
	}
	return float64(r.Entries[r.WinnerID]) / float64(r.TotalEntries)
}
