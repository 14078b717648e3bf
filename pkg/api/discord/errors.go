package discord

import (
	"errors"
	"github.com/bwmarrin/discordgo"
	"net/http"
)

// ErrNotPresent means the member, user, ban, role or message no longer exists on the platform.
var ErrNotPresent = errors.New("not present")

var notPresentCodes = []int{
	discordgo.ErrCodeUnknownMember,
	discordgo.ErrCodeUnknownUser,
	discordgo.ErrCodeUnknownBan,
	discordgo.ErrCodeUnknownRole,
	discordgo.ErrCodeUnknownMessage,
}

func IsNotPresent(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNotPresent) {
		return true
	}

	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}

	if restErr.Message != nil {
		for _, code := range notPresentCodes {
			if restErr.Message.Code == code {
				return true
			}
		}
	}

	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

// translate maps platform "unknown" errors to ErrNotPresent.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if IsNotPresent(err) && !errors.Is(err, ErrNotPresent) {
		return errors.Join(ErrNotPresent, err)
	}
	return err
}
