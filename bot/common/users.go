package common

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// ParseUserID converts a Discord snowflake string to int64
func ParseUserID(userID string) (int64, error) {
	return strconv.ParseInt(userID, 10, 64)
}

// FormatUserID converts an int64 user ID back to a snowflake string
func FormatUserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// GetUserMention returns a Discord mention for the user
func GetUserMention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}

// IsUserAdmin checks whether the interaction member can manage the guild
func IsUserAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&discordgo.PermissionManageGuild != 0 ||
		i.Member.Permissions&discordgo.PermissionAdministrator != 0
}
