package lottery

import (
	"testing"
	"time"

	"raffler/domain/entities"

	"github.com/stretchr/testify/assert"
)

func testLottery(name string) *entities.Lottery {
	return &entities.Lottery{
		ID:         1,
		GuildID:    123456789,
		ChannelID:  555,
		Name:       name,
		EntryEmoji: "🎉",
		StarterID:  100,
		EndTime:    time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
	}
}

func TestCreateCompletedLotteryEmbed(t *testing.T) {
	t.Parallel()

	lottery := testLottery("friday-draw")
	result := &entities.DrawResult{
		LotteryID:         lottery.ID,
		WinnerID:          200,
		TotalEntries:      4,
		TotalParticipants: 2,
		Entries:           map[int64]int64{100: 3, 200: 1},
	}

	embed := CreateCompletedLotteryEmbed(lottery, result)
	assert.Equal(t, "🎟️ Lottery: friday-draw (ended)", embed.Title)
	assert.Equal(t, "Winner: <@200>", embed.Description)
}

func TestCreateCompletedLotteryEmbed_EmptyDraw(t *testing.T) {
	t.Parallel()

	embed := CreateCompletedLotteryEmbed(testLottery("friday-draw"), nil)
	assert.Equal(t, "🎟️ Lottery: friday-draw (ended)", embed.Title)
	assert.Equal(t, "Nobody entered, so there is no winner.", embed.Description)
}

func TestFormatDrawAnnouncement(t *testing.T) {
	t.Parallel()

	lottery := testLottery("friday-draw")
	result := &entities.DrawResult{
		WinnerID:     200,
		TotalEntries: 4,
		Entries:      map[int64]int64{100: 3, 200: 1},
	}

	assert.Equal(t,
		"🎉 Congratulations <@200>, you won the **friday-draw** lottery! (1 entries of 4 total)",
		FormatDrawAnnouncement(lottery, result))
	assert.Equal(t,
		"🎟️ Lottery **friday-draw** has ended: nobody entered, so there is no winner.",
		FormatDrawAnnouncement(lottery, nil))
}

func TestFormatRerunAnnouncement(t *testing.T) {
	t.Parallel()

	lottery := testLottery("friday-draw")
	result := &entities.DrawResult{
		WinnerID:     100,
		TotalEntries: 4,
		Entries:      map[int64]int64{100: 3, 200: 1},
	}

	assert.Equal(t,
		"🔁 Rerun of **friday-draw**: congratulations <@100>! (3 entries of 4 total)",
		FormatRerunAnnouncement(lottery, result))
}

func TestCreateActiveLotteriesEmbed(t *testing.T) {
	t.Parallel()

	embed := CreateActiveLotteriesEmbed([]*entities.Lottery{testLottery("friday-draw")})
	assert.Contains(t, embed.Description, "**friday-draw** - draws")

	empty := CreateActiveLotteriesEmbed(nil)
	assert.Equal(t, "No lotteries are running right now.", empty.Description)
}

func TestFormatEntryBreakdown(t *testing.T) {
	t.Parallel()

	breakdown := formatEntryBreakdown(map[int64]int64{100: 1, 200: 5, 300: 5})
	assert.Equal(t, "<@200>: 5\n<@300>: 5\n<@100>: 1", breakdown)
}
