package referrals

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func intOption(name string, value int64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func TestParseInviteOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		options     []*discordgo.ApplicationCommandInteractionDataOption
		wantMaxUses int
		wantMaxAge  int
	}{
		{
			name:        "no options defaults to unlimited",
			options:     nil,
			wantMaxUses: 0,
			wantMaxAge:  0,
		},
		{
			name:        "max_uses only",
			options:     []*discordgo.ApplicationCommandInteractionDataOption{intOption("max_uses", 25)},
			wantMaxUses: 25,
			wantMaxAge:  0,
		},
		{
			name:        "max_age only",
			options:     []*discordgo.ApplicationCommandInteractionDataOption{intOption("max_age", 86400)},
			wantMaxUses: 0,
			wantMaxAge:  86400,
		},
		{
			name: "both options",
			options: []*discordgo.ApplicationCommandInteractionDataOption{
				intOption("max_uses", 1),
				intOption("max_age", 3600),
			},
			wantMaxUses: 1,
			wantMaxAge:  3600,
		},
		{
			name:        "unrelated options ignored",
			options:     []*discordgo.ApplicationCommandInteractionDataOption{intOption("rate", 3)},
			wantMaxUses: 0,
			wantMaxAge:  0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			maxUses, maxAge := parseInviteOptions(tt.options)
			assert.Equal(t, tt.wantMaxUses, maxUses)
			assert.Equal(t, tt.wantMaxAge, maxAge)
		})
	}
}
