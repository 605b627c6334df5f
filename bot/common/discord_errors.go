package common

import (
	"errors"
	"fmt"
	"net/http"

	"raffler/application"

	"github.com/bwmarrin/discordgo"
)

// MapDiscordError converts discordgo REST failures into the
// application's sentinel errors so callers can treat deleted messages
// and missing permissions as recoverable.
func MapDiscordError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", application.ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", application.ErrForbidden, err)
		}
	}

	return err
}
